package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/chronorag/ai"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// Judge implements ai.Judge with a rate-limited chat model.
type Judge struct {
	chat        *chatClient
	enabled     bool
	limiter     *rate.Limiter
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

type judgeScore struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// judgeScores accepts a bare array or an object wrapping it under "scores",
// since JSON mode on some servers only permits top-level objects.
type judgeScores []judgeScore

func (s *judgeScores) UnmarshalJSON(data []byte) error {
	var list []judgeScore
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var wrapped struct {
		Scores []judgeScore `json:"scores"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*s = wrapped.Scores
	return nil
}

func newJudge(config *ai.Config) (*Judge, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	chat, err := newChatClient(config.JudgeHost, config.JudgeModel, "openai-judge")
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if config.JudgeRatePerSecond > 0 {
		limit = rate.Limit(config.JudgeRatePerSecond)
	}
	return &Judge{
		chat:        chat,
		enabled:     config.JudgeEnabled,
		limiter:     rate.NewLimiter(limit, 1),
		maxTokens:   config.JudgeMaxTokens,
		temperature: config.JudgeTemperature,
		timeout:     config.CapabilityTimeout,
	}, nil
}

// NewJudge creates an LLM judge using the provided configuration.
func NewJudge(config *ai.Config) (ai.Judge, error) {
	return newJudge(config)
}

func (j *Judge) Name() string {
	return "openai-judge:" + j.chat.name
}

func (j *Judge) Enabled() bool {
	return j.enabled
}

// Ready always succeeds for a disabled judge.
func (j *Judge) Ready(ctx context.Context) error {
	if !j.enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	return j.chat.ping(ctx)
}

// Judge scores passages. Ids missing from the model output keep their base score.
func (j *Judge) Judge(ctx context.Context, req ai.JudgeRequest) (map[string]float64, error) {
	if !j.enabled {
		return nil, ai.ErrJudgeDisabled
	}
	if len(req.Passages) == 0 {
		return map[string]float64{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	if err := j.limiter.Wait(ctx); err != nil {
		return nil, ai.Unavailable(j.Name(), err)
	}

	var parsed judgeScores
	err := j.chat.generateJSON(ctx, judgeSystemPrompt, formatJudgePrompt(req), &parsed,
		llms.WithMaxTokens(j.maxTokens),
		llms.WithTemperature(j.temperature),
	)
	if err != nil {
		return nil, ai.Unavailable(j.Name(), err)
	}
	return mergeJudgeScores(req.Passages, parsed), nil
}

func mergeJudgeScores(passages []ai.JudgeFeature, parsed []judgeScore) map[string]float64 {
	byID := make(map[string]float64, len(parsed))
	for _, s := range parsed {
		byID[s.ID] = clamp01(s.Score)
	}
	out := make(map[string]float64, len(passages))
	for _, p := range passages {
		if score, ok := byID[p.ID]; ok {
			out[p.ID] = score
		} else {
			out[p.ID] = p.Base
		}
	}
	return out
}

func formatJudgePrompt(req ai.JudgeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\nAxis: %s\nWindow: %s -> %s\nPassages:\n",
		req.Query, req.Axis,
		req.Window.Start.Format(time.RFC3339), req.Window.End.Format(time.RFC3339))
	for i, p := range req.Passages {
		fmt.Fprintf(&b, "%d. id=%s base=%.3f time=%.2f auth=%.2f :: %s\n",
			i+1, p.ID, p.Base, p.TimeWeight, p.Authority, clip(p.Text, judgeClip))
	}
	return b.String()
}
