package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// scriptedModel replays canned responses in order.
type scriptedModel struct {
	responses []string
	err       error
	calls     int
}

func (m *scriptedModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	idx := min(m.calls, len(m.responses)-1)
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.responses[idx]}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, opts...)
}

func newTestChat(m llms.Model) *chatClient {
	return &chatClient{model: m, name: "test", logger: slog.Default()}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid passes through", `[{"id":"a","score":0.5}]`, `[{"id":"a","score":0.5}]`},
		{"missing opening quote", `[{"id":"a", score":0.5}]`, `[{"id":"a", "score":0.5}]`},
		{"truncated array", `[{"id":"a","score":0.5},`, `[{"id":"a","score":0.5}]`},
		{"bare words untouched", `{"ok": true}`, `{"ok": true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, stripCodeFence("  [1]  "))
}

func TestJudgeScores_Unmarshal(t *testing.T) {
	var bare judgeScores
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"x","score":0.4}]`), &bare))
	assert.Equal(t, judgeScores{{ID: "x", Score: 0.4}}, bare)

	var wrapped judgeScores
	require.NoError(t, json.Unmarshal([]byte(`{"scores":[{"id":"y","score":1}]}`), &wrapped))
	assert.Equal(t, judgeScores{{ID: "y", Score: 1}}, wrapped)
}

func TestMergeJudgeScores(t *testing.T) {
	passages := []ai.JudgeFeature{{ID: "a", Base: 0.3}, {ID: "b", Base: 0.7}}
	got := mergeJudgeScores(passages, []judgeScore{{ID: "a", Score: 1.7}, {ID: "zzz", Score: 0.1}})

	assert.Equal(t, map[string]float64{"a": 1.0, "b": 0.7}, got)
}

func TestChatClient_GenerateJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("retries on malformed output", func(t *testing.T) {
		model := &scriptedModel{responses: []string{"not json", "```json\n{\"scores\":[{\"index\":0,\"score\":0.9}]}\n```"}}
		var out rerankResponse
		require.NoError(t, newTestChat(model).generateJSON(ctx, "sys", "user", &out))
		assert.Equal(t, 2, model.calls)
		require.Len(t, out.Scores, 1)
		assert.Equal(t, 0.9, out.Scores[0].Score)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		model := &scriptedModel{responses: []string{"nope"}}
		var out rerankResponse
		assert.Error(t, newTestChat(model).generateJSON(ctx, "sys", "user", &out))
		assert.Equal(t, maxParseAttempts, model.calls)
	})

	t.Run("transport error is not retried", func(t *testing.T) {
		model := &scriptedModel{err: errors.New("connection refused")}
		var out rerankResponse
		assert.Error(t, newTestChat(model).generateJSON(ctx, "sys", "user", &out))
		assert.Equal(t, 0, model.calls)
	})
}

func TestCrossEncoder_Rerank(t *testing.T) {
	model := &scriptedModel{responses: []string{`{"scores":[{"index":1,"score":0.8},{"index":7,"score":1},{"index":0,"score":-2}]}`}}
	enc := &CrossEncoder{chat: newTestChat(model), timeout: time.Second}

	scores, err := enc.Rerank(context.Background(), "q", []string{"p0", "p1"})
	require.NoError(t, err)
	assert.Equal(t, []ai.RerankScore{{Index: 0, Score: 0}, {Index: 1, Score: 0.8}}, scores)
}

func TestCrossEncoder_Unavailable(t *testing.T) {
	enc := &CrossEncoder{chat: newTestChat(&scriptedModel{err: errors.New("down")}), timeout: time.Second}

	_, err := enc.Rerank(context.Background(), "q", []string{"p"})
	assert.ErrorIs(t, err, ai.ErrCapabilityUnavailable)
}

func TestJudge(t *testing.T) {
	req := ai.JudgeRequest{
		Query:  "GDP 1870",
		Axis:   core.AxisValid,
		Window: core.YearWindow(1865, 1876),
		Passages: []ai.JudgeFeature{
			{ID: "a", Text: "France GDP 1870", Base: 0.5, TimeWeight: 1, Authority: 0.9},
			{ID: "b", Text: "Other", Base: 0.2},
		},
	}

	t.Run("disabled", func(t *testing.T) {
		j := &Judge{chat: newTestChat(&scriptedModel{}), limiter: rate.NewLimiter(rate.Inf, 1), timeout: time.Second}
		_, err := j.Judge(context.Background(), req)
		assert.ErrorIs(t, err, ai.ErrJudgeDisabled)
		assert.NoError(t, j.Ready(context.Background()))
	})

	t.Run("scores with base fallback", func(t *testing.T) {
		model := &scriptedModel{responses: []string{`[{"id":"a","score":0.95}`}}
		j := &Judge{chat: newTestChat(model), enabled: true, limiter: rate.NewLimiter(rate.Inf, 1), timeout: time.Second}

		scores, err := j.Judge(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"a": 0.95, "b": 0.2}, scores)
	})

	t.Run("prompt carries features", func(t *testing.T) {
		prompt := formatJudgePrompt(req)
		assert.Contains(t, prompt, "Axis: valid")
		assert.Contains(t, prompt, "1. id=a base=0.500 time=1.00 auth=0.90 :: France GDP 1870")
		assert.Contains(t, prompt, "1865-01-01T00:00:00Z")
	})
}

func TestClip(t *testing.T) {
	assert.Equal(t, "héll", clip("héllo", 4))
	assert.Equal(t, "hi", clip("hi", 4))
}
