package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	portfolioweb "github.com/MegaGrindStone/portfolio-web"
	"github.com/MegaGrindStone/portfolio-web/internal/chat"
	"github.com/MegaGrindStone/portfolio-web/internal/models"
	"github.com/MegaGrindStone/portfolio-web/internal/services"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort        = "8080"
	defaultInboxPath   = "portfolio.db"
	defaultSessionTTL  = 30 * time.Minute
	defaultTemperature = 0.7
	defaultMaxTokens   = 500
	defaultOllamaHost  = "http://127.0.0.1:11434"
)

type llmConfig interface {
	completer(ctx context.Context, logger *slog.Logger) (chat.Completer, error)
	base() BaseLLMConfig
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type chatConfig struct {
	Greeting   string        `yaml:"greeting"`
	Fallback   string        `yaml:"fallback"`
	SessionTTL time.Duration `yaml:"sessionTTL"`
}

type config struct {
	Port           string     `yaml:"port"`
	ContentFile    string     `yaml:"contentFile"`
	InboxPath      string     `yaml:"inboxPath"`
	AllowedOrigins []string   `yaml:"allowedOrigins"`
	Log            logConfig  `yaml:"log"`
	Chat           chatConfig `yaml:"chat"`
	LLM            llmConfig  `yaml:"llm"`
}

type geminiConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

type openaiConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type anthropicConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type openrouterConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

func defaultBase(provider string) BaseLLMConfig {
	b := BaseLLMConfig{
		Provider:    provider,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	if provider == "gemini" {
		b.Model = services.GeminiDefaultModel
	}
	return b
}

func defaultConfig() config {
	return config{
		Port:      defaultPort,
		InboxPath: defaultInboxPath,
		Chat: chatConfig{
			SessionTTL: defaultSessionTTL,
		},
		LLM: &geminiConfig{BaseLLMConfig: defaultBase("gemini")},
	}
}

// loadConfig reads the configuration at path. An empty path yields the defaults: Gemini with the key
// taken from the environment.
func loadConfig(path string) (config, error) {
	if path == "" {
		cfg := defaultConfig()
		return cfg, cfg.Validate()
	}

	f, err := os.Open(path)
	if err != nil {
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	return decodeConfig(f)
}

func decodeConfig(r io.Reader) (config, error) {
	cfg := defaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port           string         `yaml:"port"`
		ContentFile    string         `yaml:"contentFile"`
		InboxPath      string         `yaml:"inboxPath"`
		AllowedOrigins []string       `yaml:"allowedOrigins"`
		Log            logConfig      `yaml:"log"`
		Chat           chatConfig     `yaml:"chat"`
		LLM            map[string]any `yaml:"llm"`
	}
	rawConfig.Chat = c.Chat

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	if rawConfig.Port != "" {
		c.Port = rawConfig.Port
	}
	if rawConfig.InboxPath != "" {
		c.InboxPath = rawConfig.InboxPath
	}
	c.ContentFile = rawConfig.ContentFile
	c.AllowedOrigins = rawConfig.AllowedOrigins
	c.Log = rawConfig.Log
	c.Chat = rawConfig.Chat

	llmProvider := "gemini"
	if p, ok := rawConfig.LLM["provider"]; ok {
		s, ok := p.(string)
		if !ok || s == "" {
			return fmt.Errorf("llm provider must be a string")
		}
		llmProvider = s
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "gemini":
		llm = &geminiConfig{BaseLLMConfig: defaultBase(llmProvider)}
	case "openai":
		llm = &openaiConfig{BaseLLMConfig: defaultBase(llmProvider)}
	case "anthropic":
		llm = &anthropicConfig{BaseLLMConfig: defaultBase(llmProvider)}
	case "ollama":
		llm = &ollamaConfig{BaseLLMConfig: defaultBase(llmProvider)}
	case "openrouter":
		llm = &openrouterConfig{BaseLLMConfig: defaultBase(llmProvider)}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

// Validate checks the values that can't be fixed up with a default.
func (c config) Validate() error {
	if c.LLM == nil {
		return errors.New("llm is required")
	}
	b := c.LLM.base()
	if b.Model == "" {
		return errors.New("llm model is required")
	}
	if b.Temperature < 0 || b.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2, got %v", b.Temperature)
	}
	if b.MaxTokens <= 0 {
		return fmt.Errorf("llm maxTokens must be positive, got %d", b.MaxTokens)
	}
	if b.Timeout < 0 {
		return fmt.Errorf("llm timeout must not be negative, got %v", b.Timeout)
	}
	if c.Chat.SessionTTL <= 0 {
		return fmt.Errorf("chat sessionTTL must be positive, got %v", c.Chat.SessionTTL)
	}
	return nil
}

// portfolio loads the configured content file, or the embedded default content.
func (c config) portfolio() (models.Portfolio, error) {
	if c.ContentFile == "" {
		f, err := portfolioweb.ContentFS.Open(portfolioweb.DefaultContentPath)
		if err != nil {
			return models.Portfolio{}, fmt.Errorf("error opening default content: %w", err)
		}
		defer f.Close()
		return models.LoadPortfolio(f)
	}

	f, err := os.Open(c.ContentFile)
	if err != nil {
		return models.Portfolio{}, fmt.Errorf("error opening content file: %w", err)
	}
	defer f.Close()
	return models.LoadPortfolio(f)
}

func (b BaseLLMConfig) base() BaseLLMConfig {
	return b
}

func (b BaseLLMConfig) params() services.LLMParameters {
	t := b.Temperature
	return services.LLMParameters{
		Temperature: &t,
		MaxTokens:   b.MaxTokens,
	}
}

func apiKeyOrEnv(key, env string) (string, error) {
	if key != "" {
		return key, nil
	}
	if key = os.Getenv(env); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("api key is required, set it in the config or %s", env)
}

func (g geminiConfig) completer(ctx context.Context, logger *slog.Logger) (chat.Completer, error) {
	apiKey, err := apiKeyOrEnv(g.APIKey, "GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}
	return services.NewGemini(ctx, apiKey, g.Model, g.params(), g.Timeout, logger)
}

func (o openaiConfig) completer(_ context.Context, logger *slog.Logger) (chat.Completer, error) {
	apiKey, err := apiKeyOrEnv(o.APIKey, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}
	return services.NewOpenAI(o.BaseURL, apiKey, o.Model, o.params(), o.Timeout, logger), nil
}

func (a anthropicConfig) completer(_ context.Context, logger *slog.Logger) (chat.Completer, error) {
	apiKey, err := apiKeyOrEnv(a.APIKey, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}
	return services.NewAnthropic(a.BaseURL, apiKey, a.Model, a.params(), a.Timeout, logger), nil
}

func (o ollamaConfig) completer(_ context.Context, logger *slog.Logger) (chat.Completer, error) {
	host := o.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}
	return services.NewOllama(host, o.Model, o.params(), o.Timeout, logger)
}

func (o openrouterConfig) completer(_ context.Context, logger *slog.Logger) (chat.Completer, error) {
	apiKey, err := apiKeyOrEnv(o.APIKey, "OPENROUTER_API_KEY")
	if err != nil {
		return nil, err
	}
	return services.NewOpenRouter("", apiKey, o.Model, o.params(), o.Timeout, logger), nil
}
