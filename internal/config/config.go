// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Bind is the listen address for the HTTP server.
	Bind string

	// StaticPath is the directory holding the two-pane frontend.
	StaticPath string

	// Provider selects the inference backend: "gemini" or "openai".
	Provider string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey string
	OpenAIModel  string
}

// Load reads configuration from the environment, loading a .env file first
// if one is present (non-fatal if missing). The selected provider's API key
// is required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Bind:         getEnvDefault("BIND", ":8080"),
		StaticPath:   getEnvDefault("STATIC_PATH", "./static"),
		Provider:     getEnvDefault("LLM_PROVIDER", ProviderGemini),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnvDefault("GEMINI_MODEL", "gemini-3-pro-preview"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnvDefault("OPENAI_MODEL", "gpt-4o"),
	}

	switch cfg.Provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=%s", ProviderGemini)
		}
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=%s", ProviderOpenAI)
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}

	return cfg, nil
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
