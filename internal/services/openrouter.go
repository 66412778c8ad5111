package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// OpenRouter provides an implementation of the chat.Completer interface for OpenRouter's chat
// completion endpoint.
type OpenRouter struct {
	endpoint string
	apiKey   string
	model    string
	params   LLMParameters

	client *http.Client

	logger *slog.Logger
}

type openRouterChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature *float64            `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Stream      bool                `json:"stream"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponse struct {
	Choices []openRouterChoice `json:"choices"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openRouterChoice struct {
	Message openRouterMessage `json:"message"`
}

const (
	openRouterAPIEndpoint = "https://openrouter.ai/api/v1"
)

// NewOpenRouter creates a new OpenRouter instance. An empty endpoint targets openrouter.ai.
func NewOpenRouter(endpoint, apiKey, model string, params LLMParameters, timeout time.Duration, logger *slog.Logger) OpenRouter {
	if endpoint == "" {
		endpoint = openRouterAPIEndpoint
	}
	return OpenRouter{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		params:   params,
		client:   newHTTPClient(timeout),
		logger:   logger.With(slog.String("module", "openrouter")),
	}
}

// Complete sends the system instruction and the user text to OpenRouter and returns the content of the
// first choice.
func (o OpenRouter) Complete(ctx context.Context, systemInstruction, userText string) (string, error) {
	reqBody := openRouterChatRequest{
		Model: o.model,
		Messages: []openRouterMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userText},
		},
		Temperature: o.params.Temperature,
		MaxTokens:   o.params.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.endpoint+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/MegaGrindStone/portfolio-web/")
	req.Header.Set("X-Title", "Portfolio Assistant")

	o.logger.Debug("Request", slog.String("model", o.model), slog.Int("textLength", len(userText)))

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", unexpectedStatus(resp)
	}

	var res openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	if res.Error != nil {
		return "", fmt.Errorf("openrouter error %d: %s", res.Error.Code, res.Error.Message)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("no choices found")
	}

	return res.Choices[0].Message.Content, nil
}
