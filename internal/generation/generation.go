// Package generation adapts third-party text generation APIs to the single
// call the controller needs: prompt in, text out.
package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalambet/haiku/internal/config"
	"github.com/kalambet/haiku/internal/haiku"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	attributionReferer = "https://github.com/kalambet/haiku"
	attributionTitle   = "haiku"
)

// Generator returns the text produced for prompt. An empty string with a nil
// error means the service answered without text; the caller decides what
// that means.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the generator for cfg.Provider. The API key is passed through
// unvalidated.
func New(cfg config.GenerationConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		return NewGenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, attributionReferer, attributionTitle), nil
	default:
		return nil, fmt.Errorf("unknown generation provider: %s", cfg.Provider)
	}
}

func transportErr(err error) error {
	return fmt.Errorf("%w: %w", haiku.ErrGenerationTransport, err)
}
