package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ChatGpt is the concrete OpenAI-backed ChatProvider, grounded on the
// Tangerg-lynx openaiv2 adapter's client.Chat.Completions.New call shape.
type ChatGpt struct {
	client *openai.Client
	model  string
}

// NewChatGpt builds a ChatGpt provider for the given model (e.g.
// "gpt-4o-mini", matching extract_tool.py's GptChat default).
func NewChatGpt(apiKey, model string) *ChatGpt {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &ChatGpt{client: &client, model: model}
}

func (c *ChatGpt) GenerateResponse(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: chatgpt completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm: chatgpt returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
