package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mfshiu/wastepro/engine/agent"
	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/engine/llm"
)

// newLLMAgent wires the LLM service (spec §4.2): one topic, accepting a
// message history and returning the provider's full response text.
// response_format, temperature, and streaming are accepted but unvalidated
// per spec: "the service does not validate — validation is the caller's
// responsibility."
func newLLMAgent(nc *nats.Conn, log *slog.Logger, chat *llm.Service) *agent.Agent {
	a := agent.New("LlmService", nc, log)

	handler := func(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
		rawMsgs, _ := p.Content["messages"].([]any)
		if len(rawMsgs) == 0 {
			return nil, fmt.Errorf("llmservice: messages is required")
		}

		messages := make([]llm.Message, 0, len(rawMsgs))
		for _, rm := range rawMsgs {
			m, ok := rm.(map[string]any)
			if !ok {
				continue
			}
			role, _ := m["role"].(string)
			content, _ := m["content"].(string)
			messages = append(messages, llm.Message{Role: role, Content: content})
		}

		response, err := chat.GenerateResponse(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("llmservice: %w", err)
		}
		return map[string]any{"response": response}, nil
	}

	_ = a.Subscribe("Prompt/LlmService/Services", handler)
	return a
}
