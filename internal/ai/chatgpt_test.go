package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordmastery/internal/config"
	"github.com/example/wordmastery/pkg/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ChatGPT {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.FromEnv(func(string) string { return "" })
	cfg.OpenAIKey = "test-key"
	cfg.OpenAIBaseURL = srv.URL + "/v1"
	c, err := New(cfg, nil)
	require.NoError(t, err)
	return c
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
}

func TestNewDisabledWithoutKey(t *testing.T) {
	_, err := New(config.FromEnv(func(string) string { return "" }), nil)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestGenerateExample(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(w, "  저는 사과를 좋아해요.  ")
	})

	example, err := c.GenerateExample(context.Background(), models.VocabularyItem{Term: "사과", Translation: "apple", Language: "ko"})
	require.NoError(t, err)
	assert.Equal(t, "저는 사과를 좋아해요.", example)

	assert.Equal(t, config.DefaultOpenAIModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "Korean")
	assert.Contains(t, got.Messages[1].Content, "'사과'")
}

func TestGenerateExampleWithFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota","type":"insufficient_quota"}}`, http.StatusTooManyRequests)
	})

	example := c.GenerateExampleWithFallback(context.Background(), models.VocabularyItem{Term: "물", Translation: "water"})
	assert.Equal(t, "물: water", example)
}

func TestGenerateTextWithWords(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, "Text.")
	})

	_, err := c.GenerateTextWithWords(context.Background(), nil)
	assert.Error(t, err)

	text, err := c.GenerateTextWithWords(context.Background(), []models.VocabularyItem{{Term: "a"}, {Term: "b"}})
	require.NoError(t, err)
	assert.Equal(t, "Text.", text)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Korean", languageName("KO"))
	assert.Equal(t, "de", languageName("de"))
	assert.Equal(t, "the target language", languageName(""))
}
