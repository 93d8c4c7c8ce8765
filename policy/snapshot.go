package policy

import (
	"maps"
	"slices"
	"time"

	"github.com/poiesic/chronorag/core"
)

// Period is a compiled fuzzy period window.
type Period struct {
	Name   string
	Window core.TimeWindow
}

// Snapshot is an immutable, versioned view of a policy.
// Callers must treat the returned Config as read-only.
type Snapshot struct {
	version   string
	config    *Config
	periods   []Period
	appliedAt time.Time
}

func newSnapshot(cfg *Config, version string, at time.Time) *Snapshot {
	cfg = cfg.Clone()
	cfg.PolicyVersion = version
	return &Snapshot{
		version:   version,
		config:    cfg,
		periods:   compilePeriods(cfg.FuzzyPeriodMap),
		appliedAt: at,
	}
}

// compilePeriods orders periods by name so substring matching is deterministic.
func compilePeriods(m map[string]PeriodBounds) []Period {
	out := make([]Period, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		b := m[name]
		out = append(out, Period{
			Name:   name,
			Window: core.MakeWindow(core.ParseDate(b.From), core.ParseDate(b.To)),
		})
	}
	return out
}

// Version returns the policy version.
func (s *Snapshot) Version() string { return s.version }

// AppliedAt returns when the snapshot became current.
func (s *Snapshot) AppliedAt() time.Time { return s.appliedAt }

// Config returns the frozen policy document.
func (s *Snapshot) Config() *Config { return s.config }

// Periods returns the compiled fuzzy periods sorted by name.
func (s *Snapshot) Periods() []Period { return s.periods }

// PolicyFor returns the set for domain, falling back to generic.
func (s *Snapshot) PolicyFor(domain string) PolicySet {
	return s.config.PolicyFor(domain)
}

// WeightsFor returns the fusion weights for domain.
func (s *Snapshot) WeightsFor(domain string) Weights {
	return s.PolicyFor(domain).RetrievalWeights
}
