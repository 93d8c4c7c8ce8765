package heuristic

import (
	"context"
	"regexp"
	"strings"

	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/core"
)

var (
	worldEconomyKeywords = []string{
		"gdp", "per capita", "historical statistics", "maddison", "19th century",
		"18th century", "world economy", "industrial revolution", "population 1820",
	}
	macroTerms       = []string{"gdp", "population", "growth", "economy"}
	leadershipTerms  = []string{"ceo", "chief executive", "leadership"}
	financeTerms     = []string{"revenue", "q2"}
	fourDigitYearExp = regexp.MustCompile(`\b1[0-9]{3}\b`)
)

// KeywordClassifier maps queries to domains with fixed keyword lists.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the keyword intent classifier.
func NewKeywordClassifier() ai.IntentClassifier {
	return KeywordClassifier{}
}

func (KeywordClassifier) Name() string { return "keyword-intent" }

func (KeywordClassifier) Ready(context.Context) error { return nil }

// ClassifyIntent checks world-economy first, then roles, then finance.
func (KeywordClassifier) ClassifyIntent(_ context.Context, query string) (core.Intent, error) {
	return Classify(query), nil
}

// Classify is the synchronous form of ClassifyIntent.
func Classify(query string) core.Intent {
	q := strings.ToLower(query)
	switch {
	case containsAny(q, worldEconomyKeywords):
		return core.Intent{Domain: core.DomainWorldEconomy, Target: "macro_history"}
	case fourDigitYearExp.MatchString(q) && containsAny(q, macroTerms):
		return core.Intent{Domain: core.DomainWorldEconomy, Target: "macro_history"}
	case containsAny(q, leadershipTerms):
		return core.Intent{Domain: core.DomainRoles, Target: "leadership"}
	case containsAny(q, financeTerms):
		return core.Intent{Domain: core.DomainFinance, Target: "financials"}
	}
	return core.Intent{Domain: core.DomainGeneric, Target: "general"}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
