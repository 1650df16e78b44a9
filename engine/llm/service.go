// Package llm provides the one generate_response(messages) -> string
// surface every other agent depends on, behind a pluggable provider chosen
// by config. Grounded on pkg/ollama/embed.go's "one concrete adapter behind
// a narrow interface" idiom, generalized from an embedding client to a chat
// client.
package llm

import (
	"context"
	"fmt"
)

// Message is one role/content turn in a chat completion request.
type Message struct {
	Role    string
	Content string
}

// ChatProvider is the interface every concrete LLM backend implements.
type ChatProvider interface {
	// GenerateResponse sends the message history and returns the model's
	// reply text.
	GenerateResponse(ctx context.Context, messages []Message) (string, error)
}

// Service wraps a ChatProvider. It exists as its own type, not a bare
// ChatProvider alias, so future cross-cutting concerns (provider
// fallback, usage accounting) have somewhere to live without breaking
// callers.
type Service struct {
	provider ChatProvider
}

// NewService builds a Service around the provider selected by config.
func NewService(provider ChatProvider) *Service {
	return &Service{provider: provider}
}

// GenerateResponse delegates to the configured provider.
func (s *Service) GenerateResponse(ctx context.Context, messages []Message) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("llm: no provider configured")
	}
	return s.provider.GenerateResponse(ctx, messages)
}

// Ask is a convenience wrapper for the common single user-turn case the
// extractor and SCQ generator/evaluator all use.
func (s *Service) Ask(ctx context.Context, prompt string) (string, error) {
	return s.GenerateResponse(ctx, []Message{{Role: "user", Content: prompt}})
}

// ProviderName identifies a supported backend, matching spec §6's
// `[service.llm]` config table.
type ProviderName string

const (
	ProviderChatGPT ProviderName = "chatgpt"
	ProviderClaude  ProviderName = "claude"
	ProviderLlama   ProviderName = "llama"
	ProviderOssGpt  ProviderName = "ossgpt"
)
