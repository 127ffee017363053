package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MegaGrindStone/cv-assess-web/internal/handlers"
	"github.com/MegaGrindStone/cv-assess-web/internal/services"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type llmConfig interface {
	llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider string `yaml:"provider" validate:"required"`
	Model    string `yaml:"model" validate:"required"`

	services.LLMParameters `yaml:",inline"`
}

type config struct {
	Port         string    `yaml:"port" validate:"required,numeric"`
	ProxyURL     string    `yaml:"proxyURL" validate:"omitempty,url"`
	SystemPrompt string    `yaml:"systemPrompt"`
	LogLevel     string    `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	LogFormat    string    `yaml:"logFormat" validate:"omitempty,oneof=text json"`
	LLM          llmConfig `yaml:"llm" validate:"required"`
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type anthropicConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

type openAIConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL" validate:"omitempty,url"`
}

type openRouterConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

type geminiConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL" validate:"omitempty,url"`
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port         string         `yaml:"port"`
		ProxyURL     string         `yaml:"proxyURL"`
		SystemPrompt string         `yaml:"systemPrompt"`
		LogLevel     string         `yaml:"logLevel"`
		LogFormat    string         `yaml:"logFormat"`
		LLM          map[string]any `yaml:"llm"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.ProxyURL = rawConfig.ProxyURL
	c.SystemPrompt = rawConfig.SystemPrompt
	c.LogLevel = rawConfig.LogLevel
	c.LogFormat = rawConfig.LogFormat

	llmProvider, ok := rawConfig.LLM["provider"].(string)
	if !ok {
		return fmt.Errorf("llm provider is required")
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "ollama":
		llm = &ollamaConfig{}
	case "anthropic":
		llm = &anthropicConfig{}
	case "openai":
		llm = &openAIConfig{}
	case "openrouter":
		llm = &openRouterConfig{}
	case "gemini":
		llm = &geminiConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

func loadConfig(r io.Reader) (config, error) {
	cfg := config{}
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := v.Struct(c.LLM); err != nil {
		return fmt.Errorf("invalid llm config: %w", err)
	}
	return nil
}

// proxyEndpoint is where the accumulator sends prompts. By default it is this server's own proxy route.
func (c config) proxyEndpoint() string {
	if c.ProxyURL != "" {
		return c.ProxyURL
	}
	return "http://localhost:" + c.Port + "/api/generate"
}

func (c config) logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

const defaultOllamaHost = "http://localhost:11434"

func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

func (o ollamaConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	host := envOr(o.Host, "OLLAMA_HOST")
	if host == "" {
		host = defaultOllamaHost
	}
	return services.NewOllama(host, o.Model, systemPrompt, o.LLMParameters, logger)
}

func (a anthropicConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	apiKey := envOr(a.APIKey, "ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	// The messages API has no default output limit.
	if a.MaxTokens == nil || *a.MaxTokens <= 0 {
		return nil, fmt.Errorf("anthropic maxTokens is required")
	}
	return services.NewAnthropic(apiKey, a.Model, systemPrompt, *a.MaxTokens, a.LLMParameters, logger), nil
}

func (o openAIConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	apiKey := envOr(o.APIKey, "OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	return services.NewOpenAI(apiKey, o.BaseURL, o.Model, systemPrompt, o.LLMParameters, logger), nil
}

func (o openRouterConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	apiKey := envOr(o.APIKey, "OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}
	return services.NewOpenRouter(apiKey, o.Model, systemPrompt, o.LLMParameters, logger), nil
}

func (g geminiConfig) llm(systemPrompt string, logger *slog.Logger) (handlers.LLM, error) {
	apiKey := envOr(g.APIKey, "GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	return services.NewGemini(context.Background(), apiKey, g.BaseURL, g.Model, systemPrompt, g.LLMParameters, logger)
}
