package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI provides an implementation of the chat.Completer interface for OpenAI's chat completion API
// and servers compatible with it.
type OpenAI struct {
	model  string
	params LLMParameters

	client *goopenai.Client

	logger *slog.Logger
}

// NewOpenAI creates a new OpenAI instance. An empty baseURL targets api.openai.com.
func NewOpenAI(baseURL, apiKey, model string, params LLMParameters, timeout time.Duration, logger *slog.Logger) OpenAI {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = newHTTPClient(timeout)
	return OpenAI{
		model:  model,
		params: params,
		client: goopenai.NewClientWithConfig(cfg),
		logger: logger.With(slog.String("module", "openai")),
	}
}

// Complete is a wrapper around the OpenAI chat completion API.
func (o OpenAI) Complete(ctx context.Context, systemInstruction, userText string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: o.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: systemInstruction,
			},
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: userText,
			},
		},
		MaxTokens: o.params.MaxTokens,
	}
	if o.params.Temperature != nil {
		req.Temperature = float32(*o.params.Temperature)
	}

	o.logger.Debug("Request", slog.String("model", o.model), slog.Int("textLength", len(userText)))

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices found")
	}

	return resp.Choices[0].Message.Content, nil
}
