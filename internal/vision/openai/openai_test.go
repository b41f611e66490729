package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/vision"
)

var testRequest = vision.Request{
	Image:  domain.Image{Data: []byte{0x89, 0x50, 0x4E, 0x47}, MimeType: "image/png"},
	Prompt: "analise",
}

func newTestGenerator(url string) *OpenAIGenerator {
	cfg := goopenai.DefaultConfig("sk-test")
	cfg.BaseURL = url + "/v1"
	return newOpenAIGenerator(cfg, "gpt-4o-mini")
}

func TestOpenAIGenerate(t *testing.T) {
	var got struct {
		Messages []struct {
			Content []struct {
				Type     string `json:"type"`
				ImageURL *struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "Sentimento: Triste\nRecomendação: Mais luz"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	text, err := newTestGenerator(server.URL).Generate(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "Sentimento: Triste\nRecomendação: Mais luz", text)

	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	require.NotNil(t, got.Messages[0].Content[1].ImageURL)
	assert.True(t, strings.HasPrefix(got.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), testRequest)
	require.Error(t, err)
	assert.Equal(t, vision.FailureEmptyResponse, vision.Classify(err))
	assert.NotErrorIs(t, err, vision.ErrBackend)
}

func TestOpenAIGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), testRequest)
	require.Error(t, err)
	assert.Equal(t, vision.FailureBackend, vision.Classify(err))
	assert.ErrorIs(t, err, vision.ErrBackend)
}
