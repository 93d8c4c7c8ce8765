// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package router

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/ai/heuristic"
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/policy"
)

// PolicySource supplies the current policy snapshot.
type PolicySource interface {
	Current() *policy.Snapshot
}

// Observation is what the router recorded about its last decision.
type Observation struct {
	TimeWindowKind core.WindowKind `json:"time_window_kind"`
	Domain         string          `json:"domain"`
}

// Router makes temporal routing decisions.
type Router struct {
	policies   PolicySource
	classifier ai.IntentClassifier
	logger     *slog.Logger

	mu   sync.Mutex
	last Observation
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "router")
	}
}

// New creates a router. A nil classifier uses the keyword classifier.
func New(policies PolicySource, classifier ai.IntentClassifier, opts ...Option) *Router {
	if classifier == nil {
		classifier = heuristic.NewKeywordClassifier()
	}
	r := &Router{
		policies:   policies,
		classifier: classifier,
		logger:     slog.Default().With("component", "router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify resolves the intent of query, falling back to generic.
func (r *Router) Classify(ctx context.Context, query string) core.Intent {
	intent, err := r.classifier.ClassifyIntent(ctx, query)
	if err != nil {
		r.logger.Warn("intent classification failed", "classifier", r.classifier.Name(), "err", err)
		return core.Intent{Domain: core.DomainGeneric, Target: "general"}
	}
	if strings.TrimSpace(intent.Domain) == "" {
		intent.Domain = core.DomainGeneric
	}
	return intent
}

// Route decides window, axis and mode for query. signals may be nil.
func (r *Router) Route(ctx context.Context, query string, hint *core.TimeHint, signals *core.Signals) core.RouteDecision {
	snap := r.policies.Current()
	cfg := snap.Config()
	intent := r.Classify(ctx, query)
	set := snap.PolicyFor(intent.Domain)

	window, kind := resolveWindow(query, hint, snap)
	decision := core.RouteDecision{
		Axis:       r.axis(query, intent.Domain, set, cfg.TransactionKeywords),
		Mode:       mode(kind, set, cfg.SnapRules, signals),
		Window:     window,
		Domain:     intent.Domain,
		Intent:     intent,
		WindowKind: kind,
	}

	r.mu.Lock()
	r.last = Observation{TimeWindowKind: kind, Domain: intent.Domain}
	r.mu.Unlock()

	r.logger.Debug("routed query",
		"domain", decision.Domain,
		"kind", kind,
		"axis", decision.Axis,
		"mode", decision.Mode,
		"policy_version", snap.Version())
	return decision
}

// LastObservation returns the observation recorded by the latest Route.
func (r *Router) LastObservation() Observation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Router) axis(query, domain string, set policy.PolicySet, keywords []string) core.Axis {
	q := strings.ToLower(query)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
			return core.AxisTransaction
		}
	}
	if domain == core.DomainFinance {
		return core.AxisTransaction
	}
	return set.Axis()
}

func mode(kind core.WindowKind, set policy.PolicySet, snap policy.SnapRules, signals *core.Signals) core.Mode {
	switch kind {
	case core.WindowKindYear, core.WindowKindDecade:
		if set.HardFor(policy.TriggerExplicitYear) {
			return core.ModeHard
		}
	case core.WindowKindCentury:
		if set.HardFor(policy.TriggerExplicitCentury) {
			return core.ModeHard
		}
	case core.WindowKindPeriod:
		if set.HardFor(policy.TriggerExplicitPeriod) {
			return core.ModeHard
		}
	}
	if signals != nil {
		if signals.Contradiction >= snap.Contradiction || signals.LowConfidence >= snap.LowConfidence {
			return core.ModeHard
		}
	}
	return set.Mode()
}
