package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/config"
)

// Provider names accepted in llm.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewClientFromConfig builds the client selected by cfg.Provider.
// The returned client is wrapped in a circuit breaker so a provider outage
// fails the remaining calls of a run fast instead of waiting on each timeout.
func NewClientFromConfig(cfg *config.LLMConfig, logger *zap.Logger) (LLMClient, error) {
	clientCfg := &Config{
		Endpoint:  cfg.Endpoint,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		MaxTokens: cfg.MaxTokens,
	}

	var (
		client LLMClient
		err    error
	)
	switch cfg.Provider {
	case ProviderOpenAI, "":
		client, err = NewClient(clientCfg, logger)
	case ProviderAnthropic:
		client, err = NewAnthropicClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	return NewGuardedClient(client, NewCircuitBreaker(DefaultCircuitBreakerConfig()), logger), nil
}
