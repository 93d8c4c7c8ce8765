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


package core

import (
	"math"
	"regexp"
	"strings"
	"time"
)

const secondsPerDay = 86400.0

var (
	// EpochFallback is returned by ParseDate when no date can be recovered.
	EpochFallback = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

	// OpenEnd is the default end of a window built without an explicit end.
	OpenEnd = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

	isoDatePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})(?:[T ](\d{2}:\d{2}(?::\d{2})?)Z?)?`)

	monthLayouts = []string{"January 2, 2006", "Jan 2, 2006", "January 2006", "Jan 2006"}
)

// ParseDate extracts a UTC timestamp from free text.
// ISO dates (optionally with a time) win over month-name dates; anything
// unparseable resolves to EpochFallback. It never fails.
func ParseDate(text string) time.Time {
	text = strings.TrimSpace(text)
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		if t, ok := parseISO(m[1], m[2]); ok {
			return t
		}
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC()
		}
	}
	return EpochFallback
}

func parseISO(date, clock string) (time.Time, bool) {
	if clock == "" {
		t, err := time.Parse("2006-01-02", date)
		return t.UTC(), err == nil
	}
	layout := "2006-01-02T15:04"
	if strings.Count(clock, ":") == 2 {
		layout = "2006-01-02T15:04:05"
	}
	t, err := time.Parse(layout, date+"T"+clock)
	return t.UTC(), err == nil
}

// TimeWindow is a closed-open interval [Start, End) in UTC.
type TimeWindow struct {
	Start time.Time `json:"from"`
	End   time.Time `json:"to"`
}

// MakeWindow builds a well-ordered UTC window. A zero end means OpenEnd.
// Reversed inputs are swapped.
func MakeWindow(start, end time.Time) TimeWindow {
	if end.IsZero() {
		end = OpenEnd
	}
	start = start.UTC()
	end = end.UTC()
	if start.After(end) {
		start, end = end, start
	}
	return TimeWindow{Start: start, End: end}
}

// YearWindow returns [from-01-01, to-01-01).
func YearWindow(from, to int) TimeWindow {
	return MakeWindow(
		time.Date(from, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(to, 1, 1, 0, 0, 0, 0, time.UTC),
	)
}

// secondsBetween avoids time.Duration, which overflows past ~292 years.
func secondsBetween(from, to time.Time) float64 {
	return float64(to.Unix()-from.Unix()) + float64(to.Nanosecond()-from.Nanosecond())/1e9
}

// Duration returns the window length in seconds, floored at zero.
func (w TimeWindow) Duration() float64 {
	return math.Max(0, secondsBetween(w.Start, w.End))
}

// Intersects reports whether the two windows overlap.
func (w TimeWindow) Intersects(other TimeWindow) bool {
	return !(!w.End.After(other.Start) || !other.End.After(w.Start))
}

// Intersection returns the overlapping segment, or false when disjoint.
func (w TimeWindow) Intersection(other TimeWindow) (TimeWindow, bool) {
	if !w.Intersects(other) {
		return TimeWindow{}, false
	}
	start := w.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := w.End
	if other.End.Before(end) {
		end = other.End
	}
	return TimeWindow{Start: start, End: end}, true
}

// Expand pads the window by seconds on both sides.
func (w TimeWindow) Expand(seconds int64) TimeWindow {
	return TimeWindow{
		Start: time.Unix(w.Start.Unix()-seconds, int64(w.Start.Nanosecond())).UTC(),
		End:   time.Unix(w.End.Unix()+seconds, int64(w.End.Nanosecond())).UTC(),
	}
}

// Contains reports whether t falls inside [Start, End).
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowIoU is intersection over union of two windows, in [0, 1].
func WindowIoU(a, b TimeWindow) float64 {
	inter, ok := a.Intersection(b)
	if !ok {
		return 0
	}
	union := a.Duration() + b.Duration() - inter.Duration()
	if union <= 0 {
		return 0
	}
	return inter.Duration() / union
}

// TxMismatchPenalty is 1 when a transaction window exists and misses the
// valid window entirely, 0 otherwise.
func TxMismatchPenalty(valid TimeWindow, tx *TimeWindow) float64 {
	if tx == nil || valid.Intersects(*tx) {
		return 0
	}
	return 1
}

// HardModePreMask reports whether a candidate survives HARD mode filtering.
func HardModePreMask(candidate, query TimeWindow) bool {
	return candidate.Intersects(query)
}

// GapDays is the day distance between the nearest edges of two windows.
// Overlapping windows have a gap of zero.
func GapDays(candidate, query TimeWindow) float64 {
	if candidate.Intersects(query) {
		return 0
	}
	gap := math.Min(
		math.Abs(secondsBetween(query.End, candidate.Start)),
		math.Abs(secondsBetween(candidate.End, query.Start)),
	)
	return gap / secondsPerDay
}

// IntelligentDecay weights a candidate by its distance from the query window.
func IntelligentDecay(candidate, query TimeWindow) float64 {
	if candidate.Intersects(query) {
		return 1
	}
	return math.Max(0, 1/(1+GapDays(candidate, query)))
}

// Hint operators.
const (
	HintAsOf    = "AS_OF"
	HintBetween = "BETWEEN"
)

// TimeHint is an explicit caller-supplied time constraint.
type TimeHint struct {
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty"`
	At       string `json:"at,omitempty" yaml:"at,omitempty"`
	From     string `json:"from,omitempty" yaml:"from,omitempty"`
	To       string `json:"to,omitempty" yaml:"to,omitempty"`
}

// WindowFromHint converts a hint into a window. AS_OF (the default operator)
// covers a single day; any other operator spans From..To.
func WindowFromHint(hint *TimeHint) TimeWindow {
	if hint == nil {
		return MakeWindow(EpochFallback, OpenEnd)
	}
	op := strings.ToUpper(strings.TrimSpace(hint.Operator))
	if op == "" || op == HintAsOf {
		at := ParseDate(orDefault(hint.At, "1970-01-01"))
		return MakeWindow(at, at.AddDate(0, 0, 1))
	}
	from := ParseDate(orDefault(hint.From, "1970-01-01"))
	to := ParseDate(orDefault(hint.To, "9999-12-31"))
	return MakeWindow(from, to)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
