package heuristic

import (
	"context"

	"github.com/poiesic/chronorag/ai"
)

// LightJudge blends the precomputed features linearly instead of calling a model.
type LightJudge struct {
	enabled bool
}

// NewLightJudge returns a judge that is active only when enabled is true.
func NewLightJudge(enabled bool) ai.Judge {
	return &LightJudge{enabled: enabled}
}

func (j *LightJudge) Name() string { return "light-judge" }

func (j *LightJudge) Ready(context.Context) error { return nil }

func (j *LightJudge) Enabled() bool { return j.enabled }

// Judge scores each passage as min(1, 0.5*base + 0.3*authority + 0.2*time_weight).
func (j *LightJudge) Judge(_ context.Context, req ai.JudgeRequest) (map[string]float64, error) {
	if !j.enabled {
		return nil, ai.ErrJudgeDisabled
	}
	out := make(map[string]float64, len(req.Passages))
	for _, p := range req.Passages {
		out[p.ID] = min(1.0, 0.5*p.Base+0.3*p.Authority+0.2*p.TimeWeight)
	}
	return out, nil
}
