package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxParseAttempts = 3

var errNoChoices = errors.New("model returned no choices")

// chatClient wraps a langchaingo chat model with JSON decoding and retries.
type chatClient struct {
	model  llms.Model
	name   string
	logger *slog.Logger
}

func newChatClient(host, model, component string) (*chatClient, error) {
	client, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &chatClient{
		model:  client,
		name:   model,
		logger: slog.Default().With("component", component),
	}, nil
}

// ping sends a one-token request to confirm the server is reachable.
func (c *chatClient) ping(ctx context.Context) error {
	_, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "ping"),
	}, llms.WithMaxTokens(1))
	return err
}

// generateJSON asks the model for JSON and decodes it into out, retrying
// when the response does not parse. Transport errors are not retried.
func (c *chatClient) generateJSON(ctx context.Context, system, user string, out any, opts ...llms.CallOption) error {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}
	opts = append(opts, llms.WithJSONMode())

	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := c.model.GenerateContent(ctx, content, opts...)
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return err
		}
		if len(response.Choices) < 1 {
			return errNoChoices
		}

		text := repairJSON(stripCodeFence(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(text), out); err != nil {
			lastErr = err
			c.logger.Warn("error parsing model response", "attempt", attempt+1, "response", text, "err", err)
			continue
		}
		return nil
	}
	c.logger.Error("failed to parse model response after retries", "err", lastErr)
	return lastErr
}
