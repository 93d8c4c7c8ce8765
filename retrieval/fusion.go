package retrieval

import (
	"math"

	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/policy"
)

const (
	ageHorizonDays  = 3650.0
	regionPenalty   = 0.08
	worldEconomyLex = 150
	worldEconomyVec = 150
	worldEconomyCap = 60
)

var unitBiases = []struct {
	unit string
	bias float64
}{
	{"intl_1990_usd", 0.05},
	{"percent", 0.02},
	{"ratio", 0.01},
}

// MonotoneTemporalFusion blends rank, time weight and authority into a score
// in [0,1], minus penalties for age and transaction-time mismatch. It is
// non-decreasing in rank, time weight and authority and non-increasing in
// both penalties.
func MonotoneTemporalFusion(rank, timeWeight, authority, txMismatch, agePenalty float64, w policy.Weights) float64 {
	alpha := core.ClampUnit(w.Alpha)
	beta := core.ClampUnit(w.BetaTime)
	gamma := core.ClampUnit(w.GammaAuthority)
	delta := math.Max(0, w.DeltaAge)
	tau := math.Max(0, w.TxGamma)

	base := alpha*core.ClampUnit(rank) + beta*core.ClampUnit(timeWeight) + gamma*core.ClampUnit(authority)
	penalty := delta*core.ClampUnit(agePenalty) + tau*core.ClampUnit(txMismatch)
	return math.Min(1, math.Max(0, base-penalty))
}

// UnitsBias favours passages that carry principled numeric units.
func UnitsBias(units []string) float64 {
	bias := 0.0
	for _, ub := range unitBiases {
		for _, u := range units {
			if u == ub.unit {
				bias += ub.bias
				break
			}
		}
	}
	return bias
}

// AgePenalty grows linearly with the gap between the windows, saturating at
// ten years. Overlapping windows are not penalized.
func AgePenalty(query, candidate core.TimeWindow) float64 {
	return math.Min(1, core.GapDays(candidate, query)/ageHorizonDays)
}

// fanout returns (lexicalK, vectorK, rerankLimit) for a domain.
func fanout(domain string, topK int) (int, int, int) {
	if domain == core.DomainWorldEconomy {
		return worldEconomyLex, worldEconomyVec, worldEconomyCap
	}
	base := max(2*topK, 10)
	return base, base, min(base, 30)
}

// applyRegionDiversity dampens repeated regions in result order.
func applyRegionDiversity(results []Result) {
	seen := make(map[string]int)
	for i := range results {
		region := results[i].Region
		if region == "" {
			continue
		}
		seen[region]++
		if n := seen[region]; n > 1 {
			factor := 1 - regionPenalty*float64(n-1)
			results[i].FinalScore = math.Max(0, results[i].FinalScore*factor)
		}
	}
}
