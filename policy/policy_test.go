package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/chronorag/core"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	t.Run("world economy ignores age", func(t *testing.T) {
		assert.Equal(t, 0.0, cfg.PolicyFor(core.DomainWorldEconomy).RetrievalWeights.DeltaAge)
	})

	t.Run("finance defaults to transaction axis", func(t *testing.T) {
		assert.Equal(t, core.AxisTransaction, cfg.PolicyFor(core.DomainFinance).Axis())
	})

	t.Run("unknown domain falls back to generic", func(t *testing.T) {
		assert.Equal(t, cfg.PolicySets[core.DomainGeneric], cfg.PolicyFor("astrology"))
	})

	t.Run("roles hard for explicit year", func(t *testing.T) {
		set := cfg.PolicyFor(core.DomainRoles)
		assert.True(t, set.HardFor(TriggerExplicitYear))
		assert.False(t, set.HardFor(TriggerExplicitCentury))
	})
}

func TestParse(t *testing.T) {
	t.Run("overrides merge onto defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(`
policy_version: v7
snap_rules:
  contradiction: 0.7
policy_sets:
  legal:
    time_axis_default: transaction
    retrieval_weights:
      alpha: 0.9
`), nil)
		require.NoError(t, err)
		assert.Equal(t, "v7", cfg.PolicyVersion)
		assert.Equal(t, 0.7, cfg.SnapRules.Contradiction)
		assert.Equal(t, 0.35, cfg.SnapRules.LowConfidence)

		legal := cfg.PolicyFor("legal")
		assert.Equal(t, core.AxisTransaction, legal.Axis())
		assert.Equal(t, 0.9, legal.RetrievalWeights.Alpha)
		assert.Equal(t, DefaultWeights().BetaTime, legal.RetrievalWeights.BetaTime)
		assert.Contains(t, cfg.PolicySets, core.DomainRoles)
	})

	t.Run("malformed sets are dropped individually", func(t *testing.T) {
		cfg, err := Parse([]byte(`
policy_sets:
  broken:
    retrieval_weights: "not a mapping"
  negative:
    retrieval_weights:
      alpha: -1
  badmode:
    time_mode_default: SOMETIMES
  fine:
    time_mode_default: HARD
`), nil)
		require.NoError(t, err)
		assert.NotContains(t, cfg.PolicySets, "broken")
		assert.NotContains(t, cfg.PolicySets, "negative")
		assert.NotContains(t, cfg.PolicySets, "badmode")
		assert.Equal(t, core.ModeHard, cfg.PolicyFor("fine").Mode())
	})

	t.Run("generic is restored when dropped", func(t *testing.T) {
		cfg, err := Parse([]byte(`
policy_sets:
  generic:
    time_axis_default: sideways
`), nil)
		require.NoError(t, err)
		assert.Equal(t, Default().PolicySets[core.DomainGeneric], cfg.PolicySets[core.DomainGeneric])
	})

	t.Run("invalid thresholds fail", func(t *testing.T) {
		_, err := Parse([]byte("snap_rules:\n  contradiction: 3\n"), nil)
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})

	t.Run("syntax error fails", func(t *testing.T) {
		_, err := Parse([]byte("policy_sets: [unclosed"), nil)
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("policy_version: v2\n"), 0o600))
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "v2", cfg.PolicyVersion)
	})
}

func TestSnapshotPeriods(t *testing.T) {
	cfg := Default()
	cfg.FuzzyPeriodMap["interwar"] = PeriodBounds{From: "1919-01-01", To: "1938-12-31"}
	snap := newSnapshot(cfg, "v1", core.EpochFallback)

	periods := snap.Periods()
	require.Len(t, periods, 2)
	assert.Equal(t, "interwar", periods[0].Name)
	assert.Equal(t, "post-war", periods[1].Name)
	assert.Equal(t, 1945, periods[1].Window.Start.Year())
	assert.Equal(t, 1960, periods[1].Window.End.Year())

	t.Run("snapshot is isolated from source config", func(t *testing.T) {
		cfg.PolicySets[core.DomainGeneric] = PolicySet{TimeModeDefault: "HARD"}
		assert.Equal(t, core.ModeIntelligent, snap.PolicyFor(core.DomainGeneric).Mode())
	})
}

func TestManagerApply(t *testing.T) {
	newManager := func(t *testing.T) *Manager {
		m, err := NewManager(nil)
		require.NoError(t, err)
		return m
	}

	t.Run("accepts new version", func(t *testing.T) {
		m := newManager(t)
		res, err := m.Apply(Change{Version: "v1", IdempotencyKey: "k1"})
		require.NoError(t, err)
		assert.Equal(t, ApplyResult{Version: "v1", Previous: "v0", Accepted: true}, res)
		assert.Equal(t, "v1", m.Current().Version())
		assert.Equal(t, "v1", m.Current().Config().PolicyVersion)
	})

	t.Run("same version with key is rejected", func(t *testing.T) {
		m := newManager(t)
		res, err := m.Apply(Change{Version: "v0", IdempotencyKey: "k1"})
		require.NoError(t, err)
		assert.False(t, res.Accepted)
		assert.Equal(t, "v0", res.Version)
	})

	t.Run("same version without key is accepted", func(t *testing.T) {
		m := newManager(t)
		res, err := m.Apply(Change{Version: "v0"})
		require.NoError(t, err)
		assert.True(t, res.Accepted)
	})

	t.Run("replayed key is rejected", func(t *testing.T) {
		m := newManager(t)
		_, err := m.Apply(Change{Version: "v1", IdempotencyKey: "k"})
		require.NoError(t, err)
		res, err := m.Apply(Change{Version: "v2", IdempotencyKey: "k"})
		require.NoError(t, err)
		assert.False(t, res.Accepted)
		assert.Equal(t, "v1", m.Current().Version())
	})

	t.Run("reset forgets keys", func(t *testing.T) {
		m := newManager(t)
		_, err := m.Apply(Change{Version: "v1", IdempotencyKey: "k"})
		require.NoError(t, err)
		m.ResetIdempotency()
		res, err := m.Apply(Change{Version: "v2", IdempotencyKey: "k"})
		require.NoError(t, err)
		assert.True(t, res.Accepted)
	})

	t.Run("invalid config keeps current snapshot", func(t *testing.T) {
		m := newManager(t)
		bad := Default()
		bad.DHQC.NMax = 0
		before := m.Current()
		res, err := m.Apply(Change{Version: "v9", Config: bad})
		assert.ErrorIs(t, err, ErrInvalidPolicy)
		assert.False(t, res.Accepted)
		assert.Same(t, before, m.Current())
	})

	t.Run("config replaces document", func(t *testing.T) {
		m := newManager(t)
		next := Default()
		next.SnapRules.Contradiction = 0.9
		_, err := m.Apply(Change{Version: "v1", Config: next})
		require.NoError(t, err)
		assert.Equal(t, 0.9, m.Current().Config().SnapRules.Contradiction)

		next.SnapRules.Contradiction = 0.1
		assert.Equal(t, 0.9, m.Current().Config().SnapRules.Contradiction)
	})

	t.Run("empty version is an error", func(t *testing.T) {
		m := newManager(t)
		_, err := m.Apply(Change{Version: "  "})
		assert.ErrorIs(t, err, ErrMissingVersion)
	})

	t.Run("bounded key memory", func(t *testing.T) {
		m, err := NewManager(nil, WithIdempotencyCapacity(2))
		require.NoError(t, err)
		for i := 1; i <= 3; i++ {
			_, err := m.Apply(Change{Version: fmt.Sprintf("v%d", i), IdempotencyKey: fmt.Sprintf("k%d", i)})
			require.NoError(t, err)
		}
		res, err := m.Apply(Change{Version: "v4", IdempotencyKey: "k1"})
		require.NoError(t, err)
		assert.True(t, res.Accepted, "oldest key should have been evicted")
	})

	t.Run("concurrent applies serialize", func(t *testing.T) {
		m := newManager(t)
		var wg sync.WaitGroup
		accepted := make(chan bool, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := m.Apply(Change{Version: fmt.Sprintf("v%d", i+1), IdempotencyKey: "shared"})
				assert.NoError(t, err)
				accepted <- res.Accepted
			}(i)
		}
		wg.Wait()
		close(accepted)
		n := 0
		for ok := range accepted {
			if ok {
				n++
			}
		}
		assert.Equal(t, 1, n)
	})
}

func TestKeySet(t *testing.T) {
	k := newKeySet(2)
	k.Add("a")
	k.Add("b")
	k.Add("a")
	k.Add("c")
	assert.True(t, k.Contains("a"))
	assert.False(t, k.Contains("b"))
	assert.Equal(t, 2, k.Len())
	k.Reset()
	assert.Equal(t, 0, k.Len())
}
