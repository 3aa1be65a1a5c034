package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalambet/haiku/internal/config"
	"github.com/kalambet/haiku/internal/haiku"
)

const poem = "waves crash on rocks\nmoonlight on the sand\nsilence returns now"

func TestNew_Providers(t *testing.T) {
	g, err := New(config.GenerationConfig{Provider: "gemini", Model: "m"})
	require.NoError(t, err)
	assert.IsType(t, &GenAI{}, g)

	g, err = New(config.GenerationConfig{})
	require.NoError(t, err)
	assert.Equal(t, defaultGeminiModel, g.(*GenAI).Model())

	g, err = New(config.GenerationConfig{Provider: "OpenAI", Model: "gpt"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, g)

	_, err = New(config.GenerationConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

// --- Gemini ---

func geminiServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenAI_Generate(t *testing.T) {
	var gotPath, gotPrompt string
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			gotPrompt = body.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": poem}},
				},
				"finishReason": "STOP",
			}},
		}
		json.NewEncoder(w).Encode(resp)
	})

	g := NewGenAI("test-key", "gemini-2.5-flash", srv.URL)
	text, err := g.Generate(context.Background(), "a prompt about ocean")
	require.NoError(t, err)

	assert.Equal(t, poem, text)
	assert.Equal(t, "a prompt about ocean", gotPrompt)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-2.5-flash:generateContent"), gotPath)
}

func TestGenAI_NoCandidates(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[]}`)
	})

	text, err := NewGenAI("test-key", "", srv.URL).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGenAI_ServiceError(t *testing.T) {
	srv := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"code":500,"message":"boom","status":"INTERNAL"}}`)
	})

	_, err := NewGenAI("test-key", "", srv.URL).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, haiku.ErrGenerationTransport), err)
}

func TestGenAI_EmptyKeyFailsAtGeneration(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewGenAI("", "", url)
	_, err := g.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, haiku.ErrGenerationTransport), err)
}

// --- OpenAI-compatible ---

func TestOpenAI_Generate(t *testing.T) {
	var gotPath, gotAuth, gotTitle, gotReferer string
	var gotReq struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.Header.Get("X-Title")
		gotReferer = r.Header.Get("HTTP-Referer")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []any{map[string]any{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": poem},
			}},
		})
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", srv.URL+"/v1", "google/gemini-2.5-flash", "https://example.com", "haiku")
	text, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, poem, text)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "haiku", gotTitle)
	assert.Equal(t, "https://example.com", gotReferer)
	assert.Equal(t, "google/gemini-2.5-flash", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "prompt", gotReq.Messages[0].Content)
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cmpl-1","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	text, err := NewOpenAI("k", srv.URL, "m", "", "").Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestOpenAI_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAI("k", srv.URL, "m", "", "").Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, haiku.ErrGenerationTransport), err)
}
