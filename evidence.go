package chronorag

import (
	"context"
	"strings"

	"github.com/poiesic/chronorag/chrono"
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/dhqc"
	"github.com/poiesic/chronorag/policy"
	"github.com/poiesic/chronorag/retrieval"
)

// Confidence levels.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

const (
	reasonChronoSanity  = "CHRONO_SANITY"
	reasonChronoOverlap = "chronosanity_overlap"
	reasonSingleSource  = "single_authoritative_source"
	reasonInsufficient  = "insufficient_evidence"
)

const (
	defaultEvidenceTopK      = 6
	worldEconomyEvidenceTopK = 60
)

// EvidenceRequest asks for an evidence bundle. Empty Mode and Axis use the
// routed values; a zero TopK uses the domain default.
type EvidenceRequest struct {
	Query string
	Hint  *core.TimeHint
	Mode  core.Mode
	Axis  core.Axis
	TopK  int
}

// Evidence is everything an answer would be grounded on.
type Evidence struct {
	Query              string                 `json:"query"`
	Route              core.RouteDecision     `json:"route"`
	Plan               dhqc.Plan              `json:"plan"`
	Signals            core.Signals           `json:"signals"`
	Passages           []chrono.Passage       `json:"passages"`
	Timeline           []chrono.TimelineEntry `json:"timeline"`
	Conflicts          []chrono.Conflict      `json:"conflicts,omitempty"`
	Counterfactuals    []string               `json:"counterfactuals,omitempty"`
	AlternativeWindows []string               `json:"alternative_windows,omitempty"`
	Confidence         string                 `json:"confidence"`
	Reasons            []string               `json:"reasons"`
	EvidenceOnly       bool                   `json:"evidence_only"`
	WeightsUsed        policy.Weights         `json:"weights_used"`
	PolicyVersion      string                 `json:"policy_version"`
}

// Evidence routes the query, retrieves, plans hops from the retrieval
// signals, then reduces passages and checks them for temporal conflicts.
// Outside the world-economy domain any conflict makes the bundle
// evidence-only.
func (a *App) Evidence(ctx context.Context, req EvidenceRequest) (*Evidence, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, retrieval.ErrEmptyQuery
	}

	decision := a.router.Route(ctx, req.Query, req.Hint, nil)
	if req.Mode != "" {
		decision.Mode = req.Mode
	}
	if req.Axis != "" {
		decision.Axis = req.Axis
	}
	topK := req.TopK
	if topK <= 0 {
		topK = defaultEvidenceTopK
		if decision.Domain == core.DomainWorldEconomy {
			topK = worldEconomyEvidenceTopK
		}
	}

	resp, err := a.pipeline.Retrieve(ctx, retrieval.Request{
		Query:  req.Query,
		Window: decision.Window,
		Mode:   decision.Mode,
		TopK:   topK,
		Axis:   decision.Axis,
		Domain: decision.Domain,
	})
	if err != nil {
		return nil, err
	}

	signals := dhqc.SignalsFromResults(resp.Authorities(), topK)
	plan := a.controller.Plan(decision.Mode, signals)

	all := chrono.PassagesFromResults(resp.Results)
	reduced := chrono.ReducePassages(all)
	threshold := a.policies.Current().Config().Chronosanity.OverlapThreshold
	conflicts := chrono.DetectConflicts(reduced, threshold)

	ev := &Evidence{
		Query:              req.Query,
		Route:              decision,
		Plan:               plan,
		Signals:            signals,
		Passages:           reduced,
		Timeline:           chrono.BuildDualTimelines(reduced),
		Conflicts:          conflicts,
		Counterfactuals:    chrono.Counterfactuals(conflicts),
		AlternativeWindows: chrono.AlternativeWindows(all, decision.Window),
		WeightsUsed:        resp.WeightsUsed,
		PolicyVersion:      resp.PolicyVersion,
	}

	switch {
	case len(conflicts) > 0 && decision.Domain != core.DomainWorldEconomy:
		ev.EvidenceOnly = true
		ev.Confidence = ConfidenceLow
		ev.Reasons = []string{reasonChronoSanity}
	case len(reduced) == 0:
		ev.Confidence = ConfidenceLow
		ev.Reasons = []string{reasonInsufficient}
	case len(conflicts) > 0:
		ev.Confidence = ConfidenceMedium
		ev.Reasons = []string{reasonSingleSource, reasonChronoOverlap}
	default:
		ev.Confidence = ConfidenceHigh
		ev.Reasons = []string{reasonSingleSource}
	}

	a.logger.Debug("evidence assembled",
		"domain", decision.Domain,
		"passages", len(reduced),
		"conflicts", len(conflicts),
		"hops", plan.Hops,
	)
	return ev, nil
}
