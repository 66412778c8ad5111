package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// Ollama provides an implementation of the chat.Completer interface for models served by an Ollama
// instance.
type Ollama struct {
	model  string
	params LLMParameters

	client *api.Client

	logger *slog.Logger
}

// NewOllama creates a new Ollama instance with the specified host URL and model name. The host must be
// a valid URL pointing to an Ollama server.
func NewOllama(host, model string, params LLMParameters, timeout time.Duration, logger *slog.Logger) (Ollama, error) {
	u, err := url.Parse(host)
	if err != nil {
		return Ollama{}, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	return Ollama{
		model:  model,
		params: params,
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
		logger: logger.With(slog.String("module", "ollama")),
	}, nil
}

// Complete sends a single non-streaming chat request and returns the content of the reply.
func (o Ollama) Complete(ctx context.Context, systemInstruction, userText string) (string, error) {
	options := map[string]any{}
	if o.params.Temperature != nil {
		options["temperature"] = *o.params.Temperature
	}
	if o.params.MaxTokens > 0 {
		options["num_predict"] = o.params.MaxTokens
	}

	f := false
	req := api.ChatRequest{
		Model: o.model,
		Messages: []api.Message{
			{
				Role:    "system",
				Content: systemInstruction,
			},
			{
				Role:    "user",
				Content: userText,
			},
		},
		Stream:  &f,
		Options: options,
	}

	o.logger.Debug("Request", slog.String("model", o.model), slog.Int("textLength", len(userText)))

	var reply string
	if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
		reply += res.Message.Content
		return nil
	}); err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	return reply, nil
}
