package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/chronorag/ai"
	"github.com/tmc/langchaingo/llms"
)

// CrossEncoder implements ai.CrossEncoder by asking a chat model to grade
// each passage against the query.
type CrossEncoder struct {
	chat    *chatClient
	timeout time.Duration
}

type rerankResponse struct {
	Scores []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	} `json:"scores"`
}

func newCrossEncoder(config *ai.Config) (*CrossEncoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	chat, err := newChatClient(config.RerankHost, config.RerankModel, "openai-cross-encoder")
	if err != nil {
		return nil, err
	}
	return &CrossEncoder{chat: chat, timeout: config.CapabilityTimeout}, nil
}

// NewCrossEncoder creates a chat-model reranker using the provided configuration.
func NewCrossEncoder(config *ai.Config) (ai.CrossEncoder, error) {
	return newCrossEncoder(config)
}

func (c *CrossEncoder) Name() string {
	return "openai-cross-encoder:" + c.chat.name
}

func (c *CrossEncoder) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.chat.ping(ctx)
}

// Rerank returns one score per passage. Passages the model skipped score 0.
func (c *CrossEncoder) Rerank(ctx context.Context, query string, passages []string) ([]ai.RerankScore, error) {
	if len(passages) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp rerankResponse
	if err := c.chat.generateJSON(ctx, rerankSystemPrompt, formatRerankPrompt(query, passages), &resp,
		llms.WithTemperature(0.0)); err != nil {
		return nil, ai.Unavailable(c.Name(), err)
	}

	scores := make([]ai.RerankScore, len(passages))
	for i := range scores {
		scores[i].Index = i
	}
	for _, s := range resp.Scores {
		if s.Index < 0 || s.Index >= len(passages) {
			continue
		}
		scores[s.Index].Score = clamp01(s.Score)
	}
	return scores, nil
}

func formatRerankPrompt(query string, passages []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nPassages:\n", query)
	for i, p := range passages {
		fmt.Fprintf(&b, "%d. %s\n", i, clip(p, passageClip))
	}
	return b.String()
}
