package generation

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GenAI generates text with Google's Gemini API.
type GenAI struct {
	apiKey  string
	model   string
	baseURL string

	mu     sync.Mutex
	client *genai.Client
}

// NewGenAI returns a Gemini generator. The underlying client is created on
// the first Generate call, so a missing key only fails generation.
func NewGenAI(apiKey, model, baseURL string) *GenAI {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GenAI{apiKey: apiKey, model: model, baseURL: baseURL}
}

// Model returns the model identifier sent with each request.
func (g *GenAI) Model() string {
	return g.model
}

func (g *GenAI) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	cc := &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}
	g.client = client
	return client, nil
}

func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", transportErr(err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", transportErr(fmt.Errorf("GenAI generate failed: %w", err))
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
