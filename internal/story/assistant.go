// Package story wraps the OpenAI chat and transcription APIs with the
// Norwegian prompts used to help elderly users tell their life stories.
// Every chat operation degrades to a fixed Norwegian fallback when the API
// key is missing or the model misbehaves.
package story

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/ratelimit"
)

var ErrNotConfigured = errors.New("openai api key not configured")

type Assistant struct {
	client  *openai.Client // nil without an API key
	model   string
	limiter ratelimit.Limiter

	logger logger.Logger
}

func NewAssistant(cfg config.OpenAIConfig, apiKey string, logger logger.Logger) *Assistant {
	a := &Assistant{
		model:   cfg.ChatModel,
		limiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(time.Minute)),
		logger:  logger,
	}
	if apiKey == "" {
		logger.Warnf("openai api key is empty, story assistant runs on fallbacks")
		return a
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	a.client = openai.NewClientWithConfig(clientCfg)

	return a
}

func (a *Assistant) Configured() bool {
	return a.client != nil
}

type chatRequest struct {
	system      string
	user        string
	temperature float32
	maxTokens   int
}

// complete returns the content of the first choice.
func (a *Assistant) complete(ctx context.Context, req chatRequest) (string, error) {
	if a.client == nil {
		return "", ErrNotConfigured
	}

	a.limiter.Take()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.system},
			{Role: openai.ChatMessageRoleUser, Content: req.user},
		},
		Temperature: req.temperature,
		MaxTokens:   req.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: can't create chat completion", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("empty chat completion")
	}

	return resp.Choices[0].Message.Content, nil
}

// decodeReply parses model output as JSON. Models like to wrap JSON in a
// markdown fence even when told not to.
func decodeReply(content string, v any) error {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	if err := sonic.UnmarshalString(strings.TrimSpace(content), v); err != nil {
		return fmt.Errorf("%w: can't decode model reply", err)
	}
	return nil
}
