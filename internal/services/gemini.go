package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiDefaultModel is used when no model is configured.
const GeminiDefaultModel = "gemini-3-flash-preview"

type geminiModelsClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Gemini provides an implementation of the chat.Completer interface backed by the Google Gen AI SDK.
type Gemini struct {
	model  string
	params LLMParameters

	models geminiModelsClient

	logger *slog.Logger
}

// NewGemini creates a Gemini completer talking to the Gemini API with the given key.
func NewGemini(ctx context.Context, apiKey, model string, params LLMParameters, timeout time.Duration, logger *slog.Logger) (Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(timeout),
	})
	if err != nil {
		return Gemini{}, fmt.Errorf("error creating gemini client: %w", err)
	}
	return newGemini(client.Models, model, params, logger), nil
}

func newGemini(models geminiModelsClient, model string, params LLMParameters, logger *slog.Logger) Gemini {
	if model == "" {
		model = GeminiDefaultModel
	}
	return Gemini{
		model:  model,
		params: params,
		models: models,
		logger: logger.With(slog.String("module", "gemini")),
	}
}

// Complete sends the user text with the system instruction to the configured Gemini model and returns
// the visible text of the first candidate.
func (g Gemini) Complete(ctx context.Context, systemInstruction, userText string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: userText}},
		},
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}
	if g.params.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*g.params.Temperature))
	}
	if g.params.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(g.params.MaxTokens)
	}

	g.logger.Debug("Request", slog.String("model", g.model), slog.Int("textLength", len(userText)))

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates found")
	}

	return visibleText(resp.Candidates[0]), nil
}

func visibleText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range c.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
