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

// Anthropic provides an interface to the Anthropic Messages API. It implements the chat.Completer
// interface with single, non-streaming requests.
type Anthropic struct {
	endpoint string
	apiKey   string
	model    string
	params   LLMParameters

	client *http.Client

	logger *slog.Logger
}

type anthropicChatRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const (
	anthropicAPIEndpoint = "https://api.anthropic.com/v1"
	anthropicAPIVersion  = "2023-06-01"
)

// NewAnthropic creates a new Anthropic instance. An empty endpoint targets api.anthropic.com. The
// Messages API requires an explicit token limit, so params.MaxTokens must be positive.
func NewAnthropic(endpoint, apiKey, model string, params LLMParameters, timeout time.Duration, logger *slog.Logger) Anthropic {
	if endpoint == "" {
		endpoint = anthropicAPIEndpoint
	}
	return Anthropic{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		model:    model,
		params:   params,
		client:   newHTTPClient(timeout),
		logger:   logger.With(slog.String("module", "anthropic")),
	}
}

// Complete sends the user text to the Messages API with the system instruction as the system prompt
// and returns the concatenated text blocks of the reply.
func (a Anthropic) Complete(ctx context.Context, systemInstruction, userText string) (string, error) {
	reqBody := anthropicChatRequest{
		Model: a.model,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: userText,
			},
		},
		System:      systemInstruction,
		MaxTokens:   a.params.MaxTokens,
		Temperature: a.params.Temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

	a.logger.Debug("Request", slog.String("model", a.model), slog.Int("textLength", len(userText)))

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e anthropicError
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error.Message == "" {
			return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return "", fmt.Errorf("anthropic error %s: %s", e.Error.Type, e.Error.Message)
	}

	var res anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	if len(res.Content) == 0 {
		return "", errors.New("no content found")
	}

	var sb strings.Builder
	for _, c := range res.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	return sb.String(), nil
}
