package chrono

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/chronorag/core"
)

const (
	timelineSnippetRunes = 140
	maxCounterfactuals   = 3
	maxAlternatives      = 3
	dateLayout           = "2006-01-02"
)

type passageKey struct {
	text  string
	start time.Time
}

// ReducePassages keeps one passage per (normalized text, valid start).
// A later passage replaces the kept one when it has higher authority or a
// higher score. The result is ordered by start, then authority and score
// descending.
func ReducePassages(passages []Passage) []Passage {
	kept := make(map[passageKey]int)
	out := make([]Passage, 0, len(passages))
	for _, p := range passages {
		key := passageKey{text: strings.ToLower(strings.TrimSpace(p.Text)), start: p.ValidWindow.Start}
		i, ok := kept[key]
		if !ok {
			kept[key] = len(out)
			out = append(out, p)
			continue
		}
		if cur := out[i]; p.Authority > cur.Authority || p.Score > cur.Score {
			out[i] = p
		}
	}
	slices.SortStableFunc(out, func(a, b Passage) int {
		if c := a.ValidWindow.Start.Compare(b.ValidWindow.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Authority, a.Authority); c != 0 {
			return c
		}
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// Conflict is a pair of passages whose validity windows overlap.
type Conflict struct {
	First   Passage `json:"first"`
	Second  Passage `json:"second"`
	Overlap float64 `json:"overlap"`
}

// DetectConflicts returns every pair, in input order, whose window IoU is
// at least threshold.
func DetectConflicts(passages []Passage, threshold float64) []Conflict {
	var out []Conflict
	for i := range passages {
		for j := i + 1; j < len(passages); j++ {
			overlap := core.WindowIoU(passages[i].ValidWindow, passages[j].ValidWindow)
			if overlap >= threshold {
				out = append(out, Conflict{First: passages[i], Second: passages[j], Overlap: overlap})
			}
		}
	}
	return out
}

// TimelineEntry is a dated snippet.
type TimelineEntry struct {
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// BuildDualTimelines labels each passage with its valid start date and the
// first 140 characters of its text.
func BuildDualTimelines(passages []Passage) []TimelineEntry {
	out := make([]TimelineEntry, len(passages))
	for i, p := range passages {
		out[i] = TimelineEntry{
			Date:    p.ValidWindow.Start.UTC().Format(dateLayout),
			Snippet: truncateRunes(p.Text, timelineSnippetRunes),
		}
	}
	return out
}

// Counterfactuals renders up to three conflicts as "date: text; date: text".
func Counterfactuals(conflicts []Conflict) []string {
	var out []string
	for _, c := range conflicts {
		if len(out) == maxCounterfactuals {
			break
		}
		parts := make([]string, 0, 2)
		for _, e := range BuildDualTimelines([]Passage{c.First, c.Second}) {
			parts = append(parts, e.Date+": "+e.Snippet)
		}
		out = append(out, strings.Join(parts, "; "))
	}
	return out
}

// AlternativeWindows lists up to three distinct windows of passages that do
// not overlap the query window at all.
func AlternativeWindows(passages []Passage, query core.TimeWindow) []string {
	var out []string
	for _, p := range passages {
		if core.WindowIoU(p.ValidWindow, query) > 0 {
			continue
		}
		label := p.ValidWindow.Start.Format(dateLayout) + " → " + p.ValidWindow.End.Format(dateLayout)
		if !slices.Contains(out, label) {
			out = append(out, label)
		}
		if len(out) == maxAlternatives {
			break
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
