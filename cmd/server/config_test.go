package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(t *testing.T, cfg config)
	}{
		{
			name: "Ollama with parameters",
			yaml: `
port: "8080"
systemPrompt: You are a fair recruiter.
llm:
  provider: ollama
  model: llama3.2
  host: http://ollama:11434
  temperature: 0.2
`,
			check: func(t *testing.T, cfg config) {
				o, ok := cfg.LLM.(*ollamaConfig)
				require.True(t, ok)
				assert.Equal(t, "llama3.2", o.Model)
				assert.Equal(t, "http://ollama:11434", o.Host)
				require.NotNil(t, o.Temperature)
				assert.InDelta(t, 0.2, *o.Temperature, 1e-6)
				assert.Equal(t, "You are a fair recruiter.", cfg.SystemPrompt)
				assert.Equal(t, "http://localhost:8080/api/generate", cfg.proxyEndpoint())
			},
		},
		{
			name: "Anthropic with external proxy",
			yaml: `
port: "9000"
proxyURL: https://proxy.example.com/api/generate
llm:
  provider: anthropic
  model: claude-3-5-sonnet-latest
  maxTokens: 1024
`,
			check: func(t *testing.T, cfg config) {
				a, ok := cfg.LLM.(*anthropicConfig)
				require.True(t, ok)
				require.NotNil(t, a.MaxTokens)
				assert.Equal(t, 1024, *a.MaxTokens)
				assert.Equal(t, "https://proxy.example.com/api/generate", cfg.proxyEndpoint())
			},
		},
		{
			name: "Gemini",
			yaml: `
port: "8080"
llm:
  provider: gemini
  model: gemini-2.5-flash
  maxTokens: 2048
`,
			check: func(t *testing.T, cfg config) {
				g, ok := cfg.LLM.(*geminiConfig)
				require.True(t, ok)
				require.NotNil(t, g.MaxTokens)
				assert.Equal(t, 2048, *g.MaxTokens)
			},
		},
		{
			name:    "Unknown provider",
			yaml:    "port: \"8080\"\nllm:\n  provider: nope\n  model: m\n",
			wantErr: "unknown llm provider",
		},
		{
			name:    "Missing provider",
			yaml:    "port: \"8080\"\nllm:\n  model: m\n",
			wantErr: "llm provider is required",
		},
		{
			name:    "Missing model",
			yaml:    "port: \"8080\"\nllm:\n  provider: openai\n",
			wantErr: "invalid",
		},
		{
			name:    "Missing port",
			yaml:    "llm:\n  provider: openrouter\n  model: m\n",
			wantErr: "invalid config",
		},
		{
			name:    "Bad log level",
			yaml:    "port: \"8080\"\nlogLevel: loud\nllm:\n  provider: openrouter\n  model: m\n",
			wantErr: "invalid config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(strings.NewReader(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestConfigLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config{LogLevel: "warn", LogFormat: "json"}
	logger := cfg.logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	cfg = config{}
	assert.True(t, cfg.logger(io.Discard).Enabled(t.Context(), 0))
}

func TestProviderAPIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, err := openRouterConfig{BaseLLMConfig: BaseLLMConfig{Model: "m"}}.llm("", config{}.logger(io.Discard))
	require.Error(t, err)

	t.Setenv("OPENROUTER_API_KEY", "from-env")
	llm, err := openRouterConfig{BaseLLMConfig: BaseLLMConfig{Model: "m"}}.llm("", config{}.logger(io.Discard))
	require.NoError(t, err)
	assert.NotNil(t, llm)
}

func TestAnthropicRequiresMaxTokens(t *testing.T) {
	cfg, err := loadConfig(strings.NewReader("port: \"8080\"\nllm:\n  provider: anthropic\n  model: m\n  apiKey: k\n"))
	require.NoError(t, err)

	_, err = cfg.LLM.llm("", config{}.logger(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxTokens")
}
