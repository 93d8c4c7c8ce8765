// Package dhqc plans how many retrieval hops to run and how many candidates
// to consider, based on how well the previous retrieval covered the query.
package dhqc

import (
	"math"

	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/policy"
)

// Plan reasons.
const (
	ReasonBaseline        = "baseline"
	ReasonLowCoverage     = "low_coverage"
	ReasonMarginalGainLow = "marginal_gain_low"
)

const maxHops = 3

// Plan is the hop budget for a request.
type Plan struct {
	Hops          int    `json:"hops"`
	MaxCandidates int    `json:"max_candidates"`
	Reason        string `json:"reason"`
}

// PolicySource supplies the current policy snapshot.
type PolicySource interface {
	Current() *policy.Snapshot
}

// Controller computes hop plans from the current policy.
type Controller struct {
	policies PolicySource
}

// New creates a controller that reads its limits from policies.
func New(policies PolicySource) *Controller {
	return &Controller{policies: policies}
}

// Plan decides the hop count for mode given signals.
func (c *Controller) Plan(mode core.Mode, signals core.Signals) Plan {
	return PlanWith(c.policies.Current().Config().DHQC, mode, signals)
}

// PlanWith is Plan against an explicit configuration.
func PlanWith(cfg policy.DHQC, mode core.Mode, signals core.Signals) Plan {
	plan := Plan{Hops: 1, Reason: ReasonBaseline}
	if signals.Coverage < cfg.Tau {
		limit := cfg.NMax
		if mode == core.ModeHard {
			limit = cfg.NHard
		}
		plan.Hops = min(limit, maxHops)
		plan.Reason = ReasonLowCoverage
	}
	if marginalGain(cfg.Tau, signals.Coverage) < cfg.Delta {
		plan.Hops = max(1, plan.Hops-1)
		plan.Reason = ReasonMarginalGainLow
	}
	budget := 12
	if plan.Hops > 1 {
		budget = 24
	}
	plan.MaxCandidates = min(cfg.FanoutCapTotal, budget)
	return plan
}

// marginalGain is the relative improvement of current over prev.
func marginalGain(prev, current float64) float64 {
	if prev <= 0 {
		return current
	}
	return math.Max(0, (current-prev)/prev)
}

// SignalsFromResults derives coverage and authority from a result set.
// Coverage is the fraction of topK that came back; authority is the best seen.
func SignalsFromResults(authorities []float64, topK int) core.Signals {
	var s core.Signals
	s.Coverage = math.Min(1, float64(len(authorities))/math.Max(1, float64(topK)))
	for _, a := range authorities {
		s.Authority = math.Max(s.Authority, a)
	}
	return s
}
