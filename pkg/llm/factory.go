package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewClient creates a Client for the configured provider.
// Supported providers: "openai" (any OpenAI-compatible endpoint) and
// "anthropic".
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
