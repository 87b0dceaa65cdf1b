package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vistest/internal/config"
)

func TestNewClient(t *testing.T) {
	t.Run("Gemini", func(t *testing.T) {
		client, err := NewClient(context.Background(), getValidLLMConfig(), zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &GeminiClient{}, client)
	})

	t.Run("GeminiMissingKey", func(t *testing.T) {
		cfg := getValidLLMConfig()
		cfg.APIKey = ""
		_, err := NewClient(context.Background(), cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		cfg := getValidLLMConfig()
		cfg.Provider = config.LLMProvider("openai")
		client, err := NewClient(context.Background(), cfg, zap.NewNop())
		assert.Nil(t, client)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported LLM provider")
		assert.Contains(t, err.Error(), "openai")
	})
}
