package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"
	"slices"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Mode selects how strictly the query window constrains candidates.
type Mode string

const (
	// ModeHard keeps only candidates whose valid window intersects the query window.
	ModeHard Mode = "HARD"
	// ModeIntelligent keeps everything and weights by temporal distance.
	ModeIntelligent Mode = "INTELLIGENT"
)

// ParseMode normalizes a mode string. Unknown values map to ModeIntelligent.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeHard)) {
		return ModeHard
	}
	return ModeIntelligent
}

// Axis selects which time dimension a query is about.
type Axis string

const (
	AxisValid       Axis = "valid"
	AxisTransaction Axis = "transaction"
)

// WindowKind tags how a query window was derived.
type WindowKind string

const (
	WindowKindHint      WindowKind = "hint"
	WindowKindPeriod    WindowKind = "period"
	WindowKindCentury   WindowKind = "century"
	WindowKindDecade    WindowKind = "decade"
	WindowKindYear      WindowKind = "year"
	WindowKindYearRange WindowKind = "year_range"
	WindowKindBroad     WindowKind = "broad"
)

// Well-known domains.
const (
	DomainGeneric      = "generic"
	DomainRoles        = "roles"
	DomainFinance      = "finance"
	DomainWorldEconomy = "world-economy"
)

// Intent is the coarse classification of a query.
type Intent struct {
	Domain string `json:"domain"`
	Target string `json:"target"`
}

// Signals are live retrieval-health measurements fed back into routing and
// hop planning.
type Signals struct {
	Coverage      float64 `json:"coverage"`
	Contradiction float64 `json:"contradiction"`
	LowConfidence float64 `json:"low_confidence"`
	Authority     float64 `json:"authority"`
}

// RouteDecision is the per-request temporal routing outcome.
type RouteDecision struct {
	Axis       Axis       `json:"axis"`
	Mode       Mode       `json:"mode"`
	Window     TimeWindow `json:"window"`
	Domain     string     `json:"domain"`
	Intent     Intent     `json:"intent"`
	WindowKind WindowKind `json:"window_kind"`
}

// DocumentRecord groups chunks that came from the same source document.
type DocumentRecord struct {
	DocID    string
	Metadata map[string]string
	ChunkIDs []string
}

// Clone returns a deep copy of the document.
func (d *DocumentRecord) Clone() *DocumentRecord {
	if d == nil {
		return nil
	}
	return &DocumentRecord{
		DocID:    d.DocID,
		Metadata: cloneMap(d.Metadata),
		ChunkIDs: slices.Clone(d.ChunkIDs),
	}
}

// ChunkRecord is an immutable unit of evidence with bi-temporal fields.
// Only TxWindow.End (and a missing VersionID) of a superseded chunk may
// change after creation.
type ChunkRecord struct {
	ChunkID         string
	DocID           string
	Text            string
	URI             string
	Authority       float64
	ValidWindow     TimeWindow
	TxWindow        *TimeWindow
	ExternalID      string
	VersionID       string
	Facets          map[string]string
	Entities        []string
	Tags            []string
	Units           []string
	TimeGranularity string
	TimeSigmaDays   *int
	Vector          []float32
	Extra           map[string]string
}

// Clone returns a deep copy so callers can't mutate stored state.
func (c *ChunkRecord) Clone() *ChunkRecord {
	if c == nil {
		return nil
	}
	out := *c
	if c.TxWindow != nil {
		tx := *c.TxWindow
		out.TxWindow = &tx
	}
	if c.TimeSigmaDays != nil {
		sigma := *c.TimeSigmaDays
		out.TimeSigmaDays = &sigma
	}
	out.Facets = cloneMap(c.Facets)
	out.Extra = cloneMap(c.Extra)
	out.Entities = slices.Clone(c.Entities)
	out.Tags = slices.Clone(c.Tags)
	out.Units = slices.Clone(c.Units)
	out.Vector = slices.Clone(c.Vector)
	return &out
}

// Region returns the first "Region:" entity, else the region facet.
func (c *ChunkRecord) Region() string {
	for _, e := range c.Entities {
		if region, ok := strings.CutPrefix(e, "Region:"); ok {
			return region
		}
	}
	return c.Facets["region"]
}

// HasUnit reports whether the chunk carries the given unit label.
func (c *ChunkRecord) HasUnit(unit string) bool {
	return slices.Contains(c.Units, unit)
}

// DocIDFromURI derives a stable document id from a URI using BLAKE2b.
func DocIDFromURI(uri string) string {
	h, _ := blake2b.New(8, nil) // 64 bits
	h.Write([]byte(uri))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeSet trims values, drops blanks and returns them sorted and unique.
func NormalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
