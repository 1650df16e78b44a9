package llm

import (
	"fmt"

	"github.com/mfshiu/wastepro/engine/config"
)

// NewFromConfig builds the Service for whichever provider
// `[service.llm].name` selects, matching spec §6's per-provider subtable
// schema. ChatGPT is the only fully wired provider (the other
// ProviderName values are accepted by config but route through
// HTTPProvider, a generic bring-your-own-endpoint adapter).
func NewFromConfig(cfg config.LLMServiceConfig) (*Service, error) {
	provider, err := cfg.Active()
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	switch ProviderName(cfg.Name) {
	case ProviderChatGPT:
		return NewService(NewChatGpt(provider.OpenAIAPIKey, provider.Model)), nil
	default:
		return NewService(NewHTTPProvider(provider.BaseURL, provider.APIKey, provider.Model)), nil
	}
}
