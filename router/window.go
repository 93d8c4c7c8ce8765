package router

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/policy"
)

var (
	yearExp    = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)
	centuryExp = regexp.MustCompile(`(?i)\b([0-9]{1,2})(st|nd|rd|th)\s+century\b`)

	broadWindow = core.MakeWindow(
		time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
	)
)

// extractYears returns the distinct years mentioned in query, ascending.
func extractYears(query string) []int {
	var years []int
	for _, m := range yearExp.FindAllStringSubmatch(query, -1) {
		if y, err := strconv.Atoi(m[1]); err == nil {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return slices.Compact(years)
}

// extractCenturies returns the distinct ordinal centuries in query, ascending.
func extractCenturies(query string) []int {
	var out []int
	for _, m := range centuryExp.FindAllStringSubmatch(query, -1) {
		if c, err := strconv.Atoi(m[1]); err == nil && c > 0 {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func matchPeriod(query string, periods []policy.Period) (policy.Period, bool) {
	q := strings.ToLower(query)
	for _, p := range periods {
		if strings.Contains(q, strings.ToLower(p.Name)) {
			return p, true
		}
	}
	return policy.Period{}, false
}

// resolveWindow applies hint > period > century > years > broad.
func resolveWindow(query string, hint *core.TimeHint, snap *policy.Snapshot) (core.TimeWindow, core.WindowKind) {
	if hint != nil {
		return core.WindowFromHint(hint), core.WindowKindHint
	}
	if p, ok := matchPeriod(query, snap.Periods()); ok {
		return p.Window, core.WindowKindPeriod
	}
	pads := snap.Config().TimeWindowDefaults
	if centuries := extractCenturies(query); len(centuries) > 0 {
		c := centuries[0]
		start := max(1, (c-1)*100+1-pads.CenturyPaddingYears)
		return core.YearWindow(start, c*100+pads.CenturyPaddingYears+1), core.WindowKindCentury
	}
	switch years := extractYears(query); len(years) {
	case 0:
	case 1:
		y := years[0]
		return core.YearWindow(max(1, y-pads.DecadePaddingYears), y+pads.DecadePaddingYears+1), core.WindowKindDecade
	default:
		return core.YearWindow(years[0], years[len(years)-1]+1), core.WindowKindYearRange
	}
	return broadWindow, core.WindowKindBroad
}
