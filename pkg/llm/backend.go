package llm

import (
	"context"
	"fmt"

	"github.com/minhyannv/github-mcp-agent/pkg/config"
)

// New builds the backend selected by cfg.
func New(ctx context.Context, cfg config.Config) (Backend, error) {
	name, err := cfg.SelectBackend()
	if err != nil {
		return nil, err
	}
	switch name {
	case config.BackendOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	case config.BackendGemini:
		return NewGemini(ctx, GeminiConfig{
			APIKey: cfg.GoogleAPIKey,
			Model:  cfg.GeminiModel,
		})
	default:
		return nil, fmt.Errorf("unsupported backend %q", name)
	}
}
