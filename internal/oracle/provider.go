package oracle

import (
	"context"
	"fmt"

	"funnel/internal/config"

	"go.uber.org/zap"
)

// New builds the client for the configured provider.
func New(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case config.OracleProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			APIKey:         cfg.AnthropicAPIKey,
			BaseURL:        cfg.AnthropicURL,
			Model:          cfg.AnthropicModel,
			RequestsPerSec: cfg.RequestsPerSec,
		}, logger)
	case config.OracleProviderGemini:
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			RequestsPerSec: cfg.RequestsPerSec,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.Provider)
	}
}
