package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
)

func TestOpenAIGenerate(t *testing.T) {
	t.Parallel()

	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"---TITLE---\nSalom"}}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAIGenerator(config.GeneratorConfig{
		APIKey:   "sk-test",
		Endpoint: srv.URL + "/v1/",
	}, nil)
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "maqola yoz")
	require.NoError(t, err)
	assert.Equal(t, "---TITLE---\nSalom", text)

	assert.Equal(t, defaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, defaultSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "maqola yoz", got.Messages[1].Content)
}

func TestOpenAIErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing key", func(t *testing.T) {
		_, err := NewOpenAIGenerator(config.GeneratorConfig{}, nil)
		assert.Error(t, err)
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		gen, err := NewOpenAIGenerator(config.GeneratorConfig{APIKey: "k", Endpoint: srv.URL}, nil)
		require.NoError(t, err)
		_, err = gen.Generate(context.Background(), "x")
		assert.ErrorIs(t, err, domain.ErrEmptyGeneration)
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		gen, err := NewOpenAIGenerator(config.GeneratorConfig{APIKey: "k", Endpoint: srv.URL}, nil)
		require.NoError(t, err)
		_, err = gen.Generate(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "openai chat completion")
	})
}

func TestGeminiGenerate(t *testing.T) {
	t.Parallel()

	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		encoded, _ := json.Marshal(payload)
		body = string(encoded)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Assalomu alaykum"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	gen, err := NewGeminiGenerator(context.Background(), config.GeneratorConfig{
		APIKey:       "g-test",
		Endpoint:     srv.URL,
		SystemPrompt: "Siz yordamchisiz",
	}, nil)
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "salom")
	require.NoError(t, err)
	assert.Equal(t, "Assalomu alaykum", text)
	assert.Contains(t, body, "salom")
	assert.Contains(t, body, "Siz yordamchisiz")
}

func TestGeminiRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiGenerator(context.Background(), config.GeneratorConfig{}, nil)
	assert.Error(t, err)
}

func TestLimiterSpacesCalls(t *testing.T) {
	t.Parallel()

	unlimited := newLimiter(0)
	for range 5 {
		require.NoError(t, wait(context.Background(), unlimited))
	}

	limited := newLimiter(1)
	require.NoError(t, wait(context.Background(), limited))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, wait(ctx, limited), "second call inside the minute must block past the deadline")
}

func TestSafePrompt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, defaultSystemPrompt, safePrompt("   "))
	assert.Equal(t, "custom", safePrompt(" custom "))
}

func TestOpenAIWithSystemPromptKeepsOriginal(t *testing.T) {
	t.Parallel()

	var systems []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.NotEmpty(t, body.Messages) {
			systems = append(systems, body.Messages[0].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAIGenerator(config.GeneratorConfig{APIKey: "k", Endpoint: srv.URL}, nil)
	require.NoError(t, err)
	assistant := gen.WithSystemPrompt("Siz yordamchisiz")

	_, err = assistant.Generate(context.Background(), "salom")
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), "maqola yoz")
	require.NoError(t, err)

	assert.Equal(t, []string{"Siz yordamchisiz", defaultSystemPrompt}, systems)
}
