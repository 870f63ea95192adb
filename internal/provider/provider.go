// Package provider implements the generative-text collaborator clients.
package provider

import (
	"context"
)

// TextProvider is the interface for generative-text API clients.
type TextProvider interface {
	// Generate sends a single prompt and returns the generated text.
	Generate(ctx context.Context, prompt string) (string, error)
	// DefaultModel returns the configured default model.
	DefaultModel() string
}

// Config holds provider credentials and model selection.
type Config struct {
	APIKey string `json:"apiKey" envconfig:"API_KEY"`
	Model  string `json:"model" envconfig:"MODEL"`
}

// Resolve returns the configured provider, or nil when no API key is set.
// Callers treat a nil provider as "always use the fallback text".
func Resolve(cfg Config) TextProvider {
	if cfg.APIKey == "" {
		return nil
	}
	return NewGeminiProvider(cfg.APIKey, cfg.Model)
}
