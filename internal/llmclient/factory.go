// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vistest/api/schemas"
	"github.com/xkilldash9x/vistest/internal/config"
)

// NewClient creates the ModelClient for the configured provider.
func NewClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger, opts ...Option) (schemas.ModelClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg, logger, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", cfg.Provider, config.ProviderGemini)
	}
}
