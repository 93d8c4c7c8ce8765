package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/chronorag/ai/mock"
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/policy"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	m, err := policy.NewManager(nil)
	require.NoError(t, err)
	return New(m, nil)
}

func TestRouteModes(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	t.Run("defaults to intelligent", func(t *testing.T) {
		d := r.Route(ctx, "What is the revenue guidance?", nil, nil)
		assert.Equal(t, core.ModeIntelligent, d.Mode)
		assert.Contains(t, []core.Axis{core.AxisValid, core.AxisTransaction}, d.Axis)
	})

	t.Run("contradiction snaps to hard", func(t *testing.T) {
		d := r.Route(ctx, "Who is the CEO today?", nil, &core.Signals{Contradiction: 0.6})
		assert.Equal(t, core.ModeHard, d.Mode)
	})

	t.Run("low confidence snaps to hard", func(t *testing.T) {
		d := r.Route(ctx, "anything at all", nil, &core.Signals{LowConfidence: 0.35})
		assert.Equal(t, core.ModeHard, d.Mode)
	})

	t.Run("signals below thresholds keep default", func(t *testing.T) {
		d := r.Route(ctx, "anything at all", nil, &core.Signals{Contradiction: 0.49, LowConfidence: 0.3})
		assert.Equal(t, core.ModeIntelligent, d.Mode)
	})

	t.Run("world economy year is hard", func(t *testing.T) {
		d := r.Route(ctx, "GDP 1870 Europe", nil, nil)
		assert.Equal(t, core.DomainWorldEconomy, d.Domain)
		assert.Equal(t, core.ModeHard, d.Mode)
		assert.Equal(t, core.WindowKindDecade, d.WindowKind)
		assert.Equal(t, core.YearWindow(1865, 1876), d.Window)
	})

	t.Run("world economy period is hard", func(t *testing.T) {
		d := r.Route(ctx, "GDP growth in the post-war boom", nil, nil)
		assert.Equal(t, core.WindowKindPeriod, d.WindowKind)
		assert.Equal(t, core.ModeHard, d.Mode)
		assert.Equal(t, 1945, d.Window.Start.Year())
	})

	t.Run("generic year stays intelligent", func(t *testing.T) {
		d := r.Route(ctx, "weather in 1990", nil, nil)
		assert.Equal(t, core.DomainGeneric, d.Domain)
		assert.Equal(t, core.ModeIntelligent, d.Mode)
	})
}

func TestRouteWindows(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		hint  *core.TimeHint
		kind  core.WindowKind
		want  core.TimeWindow
	}{
		{
			name:  "hint wins over years",
			query: "events of 1850",
			hint:  &core.TimeHint{Operator: core.HintBetween, From: "2001-01-01", To: "2002-01-01"},
			kind:  core.WindowKindHint,
			want:  core.YearWindow(2001, 2002),
		},
		{
			name:  "period wins over century",
			query: "post-war 20th century",
			kind:  core.WindowKindPeriod,
			want:  core.MakeWindow(core.ParseDate("1945-01-01"), core.ParseDate("1960-12-31")),
		},
		{
			name:  "century with padding",
			query: "trade in the 19th Century",
			kind:  core.WindowKindCentury,
			want:  core.YearWindow(1751, 1951),
		},
		{
			name:  "first century floors at year one",
			query: "the 1st century",
			kind:  core.WindowKindCentury,
			want:  core.YearWindow(1, 151),
		},
		{
			name:  "lowest century wins",
			query: "from the 20th century back to the 18th century",
			kind:  core.WindowKindCentury,
			want:  core.YearWindow(1651, 1851),
		},
		{
			name:  "year range",
			query: "between 1913 and 1870 and 1913",
			kind:  core.WindowKindYearRange,
			want:  core.YearWindow(1870, 1914),
		},
		{
			name:  "broad fallback",
			query: "no dates here",
			kind:  core.WindowKindBroad,
			want:  broadWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Route(ctx, tt.query, tt.hint, nil)
			assert.Equal(t, tt.kind, d.WindowKind)
			assert.Equal(t, tt.want, d.Window)
			assert.Equal(t, Observation{TimeWindowKind: tt.kind, Domain: d.Domain}, r.LastObservation())
		})
	}
}

func TestRouteAxis(t *testing.T) {
	r := newTestRouter(t)
	ctx := context.Background()

	t.Run("transaction keyword", func(t *testing.T) {
		d := r.Route(ctx, "What was reported for the period?", nil, nil)
		assert.Equal(t, core.AxisTransaction, d.Axis)
	})

	t.Run("finance domain", func(t *testing.T) {
		d := r.Route(ctx, "Q2 revenue", nil, nil)
		assert.Equal(t, core.DomainFinance, d.Domain)
		assert.Equal(t, core.AxisTransaction, d.Axis)
	})

	t.Run("policy default", func(t *testing.T) {
		d := r.Route(ctx, "who led the company", nil, nil)
		assert.Equal(t, core.AxisValid, d.Axis)
	})
}

func TestRouteClassifierFallback(t *testing.T) {
	m, err := policy.NewManager(nil)
	require.NoError(t, err)

	t.Run("error falls back to generic", func(t *testing.T) {
		classifier := mock.NewMockIntentClassifier(core.DomainRoles)
		classifier.ClassifyFn = func(context.Context, string) (core.Intent, error) {
			return core.Intent{}, errors.New("offline")
		}
		d := New(m, classifier).Route(context.Background(), "CEO in 1999", nil, nil)
		assert.Equal(t, core.DomainGeneric, d.Domain)
		assert.Equal(t, core.ModeIntelligent, d.Mode)
	})

	t.Run("unknown domain uses generic policy", func(t *testing.T) {
		classifier := mock.NewMockIntentClassifier("astrology")
		d := New(m, classifier).Route(context.Background(), "stars in 1999", nil, nil)
		assert.Equal(t, "astrology", d.Domain)
		assert.Equal(t, core.ModeIntelligent, d.Mode)
		assert.Equal(t, core.AxisValid, d.Axis)
	})

	t.Run("roles explicit year is hard", func(t *testing.T) {
		classifier := mock.NewMockIntentClassifier(core.DomainRoles)
		d := New(m, classifier).Route(context.Background(), "CEO in 1999", nil, nil)
		assert.Equal(t, core.ModeHard, d.Mode)
	})
}

func TestRouteFollowsPolicyChanges(t *testing.T) {
	m, err := policy.NewManager(nil)
	require.NoError(t, err)
	r := New(m, mock.NewMockIntentClassifier(core.DomainGeneric))

	next := policy.Default()
	set := next.PolicySets[core.DomainGeneric]
	set.HardModeFor = []string{policy.TriggerExplicitCentury}
	next.PolicySets[core.DomainGeneric] = set
	_, err = m.Apply(policy.Change{Version: "v1", Config: next})
	require.NoError(t, err)

	d := r.Route(context.Background(), "the 17th century", nil, nil)
	assert.Equal(t, core.ModeHard, d.Mode)
}

func TestExtractors(t *testing.T) {
	assert.Equal(t, []int{1870, 1913}, extractYears("1913 vs 1870 vs 1913 and 3000"))
	assert.Empty(t, extractYears("no years"))
	assert.Equal(t, []int{18, 19}, extractCenturies("19th century and 18TH  Century"))
}
