package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/example/wordmastery/internal/config"
	"github.com/example/wordmastery/internal/logger"
	"github.com/example/wordmastery/pkg/models"
)

// ErrDisabled is returned by New when no API key is configured
var ErrDisabled = errors.New("ai: OPENAI_API_KEY is not set")

const requestTimeout = 20 * time.Second

var languageNames = map[string]string{
	"ko": "Korean",
	"en": "English",
	"ja": "Japanese",
	"ru": "Russian",
}

// ChatGPT represents a client for the OpenAI chat completions API
type ChatGPT struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	log         *logger.Logger
}

// New creates a new ChatGPT client from the configuration
func New(cfg *config.Config, log *logger.Logger) (*ChatGPT, error) {
	if !cfg.IsAIEnabled() {
		return nil, ErrDisabled
	}
	if log == nil {
		log = logger.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	model := cfg.OpenAIModel
	if model == "" {
		model = config.DefaultOpenAIModel
	}

	return &ChatGPT{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		maxTokens:   100,
		temperature: 0.7,
		log:         log,
	}, nil
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	if code == "" {
		return "the target language"
	}
	return code
}

// GenerateExample generates a short example sentence containing the item's term
func (c *ChatGPT) GenerateExample(ctx context.Context, item models.VocabularyItem) (string, error) {
	lang := languageName(item.Language)
	prompt := fmt.Sprintf(
		"Write one short, practical example sentence in %s that naturally uses '%s' (meaning '%s'). "+
			"Reply with the sentence only.",
		lang, item.Term, item.Translation,
	)
	return c.complete(ctx, fmt.Sprintf("You help learners of %s remember vocabulary with natural example sentences.", lang), prompt, c.maxTokens, c.temperature)
}

// GenerateExampleWithFallback generates an example and falls back to a
// template sentence when the request fails
func (c *ChatGPT) GenerateExampleWithFallback(ctx context.Context, item models.VocabularyItem) string {
	example, err := c.GenerateExample(ctx, item)
	if err != nil {
		c.log.Warn("Failed to generate example", "term", item.Term, "error", err)
		return fmt.Sprintf("%s: %s", item.Term, item.Translation)
	}
	return example
}

// GenerateTextWithWords generates a two or three sentence text using up to five of the items
func (c *ChatGPT) GenerateTextWithWords(ctx context.Context, items []models.VocabularyItem) (string, error) {
	if len(items) == 0 {
		return "", errors.New("ai: no words given")
	}
	if len(items) > 5 {
		items = items[:5]
	}
	terms := make([]string, len(items))
	for i, item := range items {
		terms[i] = item.Term
	}
	lang := languageName(items[0].Language)
	prompt := fmt.Sprintf(
		"Write a short, simple text in %s (2-3 sentences) for a beginner that uses these words: %s. "+
			"Reply with the text only.",
		lang, strings.Join(terms, ", "),
	)
	return c.complete(ctx, "You write short texts that help learners remember new words in context.", prompt, 150, 0.8)
}

func (c *ChatGPT) complete(ctx context.Context, system, prompt string, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "chat completion request failed")
	}
	c.log.Debug("Chat completion", "model", c.model, "latency_ms", time.Since(start).Milliseconds())

	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}
