package ai

import (
	"context"

	"github.com/pkg/errors"

	"github.com/zhouzirui/lumi/backend/internal/config"
)

// NewGateway builds the provider selected by cfg.Provider, wrapped with the
// keyword screen when enabled.
func NewGateway(ctx context.Context, cfg config.AIConfig) (Gateway, error) {
	if !cfg.Enabled() {
		return nil, errors.Errorf("credentials for provider %q are not configured", cfg.Provider)
	}

	tmpl := DefaultPrompt()

	var (
		gateway Gateway
		err     error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		gateway, err = NewGeminiGateway(ctx, cfg.GeminiAPIKey, tmpl, GeminiOptions{
			Model:        cfg.GeminiModel,
			Temperature:  cfg.Temperature,
			TopP:         cfg.TopP,
			MaxTokens:    cfg.MaxTokens,
			HistoryLimit: cfg.HistoryLimit,
		})
	case config.ProviderOpenAI:
		gateway, err = NewOpenAIGateway(cfg.OpenAIAPIKey, tmpl, OpenAIOptions{
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIModel,
			Temperature:  cfg.Temperature,
			TopP:         cfg.TopP,
			MaxTokens:    cfg.MaxTokens,
			HistoryLimit: cfg.HistoryLimit,
		})
	default:
		chatModel, modelErr := cfg.NewChatModel(ctx)
		if modelErr != nil {
			return nil, errors.Wrap(modelErr, "create chat model")
		}
		gateway, err = NewArkGateway(ctx, chatModel, tmpl, cfg.HistoryLimit)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "create %s gateway", cfg.Provider)
	}

	if cfg.CrisisScreenEnabled {
		gateway = NewScreenedGateway(gateway)
	}
	return gateway, nil
}
