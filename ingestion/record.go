package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/pvdb"
)

// worldFacetDefaults are stamped onto every world-economy row that lacks them.
var worldFacetDefaults = map[string]string{
	"tenant":            "lab",
	"domain":            core.DomainWorldEconomy,
	"source":            "oecd-maddison",
	"license":           "© OECD 2006 (short summaries only)",
	"locale":            "en",
	"fiscal_year_start": "JAN",
}

const worldEconomySigmaDays = 90

// row is one decoded JSONL object. Numbers are kept as json.Number.
type row map[string]any

// parseRows returns the decoded rows when every non-blank line of payload is
// a JSON object, and false otherwise.
func parseRows(payload string) ([]row, bool) {
	var rows []row
	sc := bufio.NewScanner(strings.NewReader(payload))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var r row
		if err := dec.Decode(&r); err != nil || r == nil || dec.More() {
			return nil, false
		}
		rows = append(rows, r)
	}
	if sc.Err() != nil || len(rows) == 0 {
		return nil, false
	}
	return rows, true
}

func (r row) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func (r row) obj(key string) row {
	if m, ok := r[key].(map[string]any); ok {
		return row(m)
	}
	return nil
}

func (r row) list(key string) []string {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := stringify(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r row) integer(key string) (int, bool) {
	n, ok := r[key].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// stringify keeps strings as-is and JSON-encodes everything else.
// Null and empty values report false.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (r row) isWorldEconomy() bool {
	for _, tag := range r.list("tags") {
		if tag == core.DomainWorldEconomy {
			return true
		}
	}
	return r.obj("facets").str("domain") == core.DomainWorldEconomy
}

// facets merges the row facets with defaults without overwriting keys.
func (r row) facets() map[string]string {
	out := map[string]string{}
	for k, v := range r.obj("facets") {
		if s, ok := stringify(v); ok {
			out[k] = s
		}
	}
	if r.isWorldEconomy() {
		for k, v := range worldFacetDefaults {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out
}

// validWindow derives the valid window with granularity and sigma defaults.
func (r row) validWindow(worldEconomy bool) (core.TimeWindow, string, *int) {
	valid := r.obj("valid")
	startRaw := valid.str("from")
	if startRaw == "" {
		if year, ok := r.integer("year"); ok {
			startRaw = core.YearWindow(year, year+1).Start.Format("2006-01-02")
		}
	}
	if startRaw == "" {
		startRaw = "1970-01-01"
	}
	start := core.ParseDate(startRaw)

	granularity := valid.str("granularity")
	var end time.Time
	switch {
	case valid.str("to") != "":
		end = core.ParseDate(valid.str("to"))
	case granularity == "year" || worldEconomy:
		end = time.Date(start.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		end = core.OpenEnd
	}

	if granularity == "" && worldEconomy {
		granularity = "year"
	}
	var sigma *int
	if v, ok := valid.integer("sigma_days"); ok && v != 0 {
		sigma = &v
	} else if v, ok := valid.integer("sigma"); ok {
		sigma = &v
	}
	if sigma == nil && worldEconomy && granularity == "year" {
		v := worldEconomySigmaDays
		sigma = &v
	}
	return core.MakeWindow(start, end), granularity, sigma
}

// txWindow returns nil when the row carries no transaction bounds.
func (r row) txWindow(fallback core.TimeWindow) *core.TimeWindow {
	tx := r.obj("tx")
	startRaw, endRaw := tx.str("start"), tx.str("end")
	if startRaw == "" && endRaw == "" {
		return nil
	}
	start := fallback.Start
	if startRaw != "" {
		start = core.ParseDate(startRaw)
	}
	end := core.OpenEnd
	if endRaw != "" {
		end = core.ParseDate(endRaw)
	}
	w := core.MakeWindow(start, end)
	return &w
}

func (r row) versionID() string {
	if v, ok := stringify(r.obj("tx")["revision_id"]); ok {
		return v
	}
	v, _ := stringify(r["revision_id"])
	return v
}

func (r row) uri(fallback string) string {
	if uri := r.obj("provenance").str("uri"); uri != "" {
		return uri
	}
	if uri := r.str("uri"); uri != "" {
		return uri
	}
	return fallback
}

func (r row) sections() []string {
	var out []string
	if s, ok := r["section"].(string); ok {
		out = append(out, s)
	}
	return append(out, r.list("sections")...)
}

// ledgerUpdates returns the document metadata carried by a row without text.
func (r row) ledgerUpdates() map[string]string {
	updates := map[string]string{}
	for _, key := range []string{"page_title", "page_url", "revision_id", "revision_timestamp", "sections"} {
		if v, ok := stringify(r[key]); ok && v != "[]" {
			updates[key] = v
		}
	}
	return updates
}

// chunkInput builds the store input for a row with text.
func (r row) chunkInput(text, defaultURI string) pvdb.ChunkInput {
	facets := r.facets()
	worldEconomy := facets["domain"] == core.DomainWorldEconomy

	valid, granularity, sigma := r.validWindow(worldEconomy)
	uri := r.uri(defaultURI)

	metadata := map[string]string{"uri": uri}
	for _, key := range []string{"external_id", "status", "provenance"} {
		if v, ok := stringify(r[key]); ok {
			metadata[key] = v
		}
	}

	return pvdb.ChunkInput{
		Text:            text,
		URI:             uri,
		ValidWindow:     valid,
		TxWindow:        r.txWindow(valid),
		Authority:       AuthorityFromURI(uri),
		Metadata:        metadata,
		DocID:           r.docID(facets),
		ExternalID:      r.str("external_id"),
		VersionID:       r.versionID(),
		Facets:          facets,
		Entities:        DeriveEntities(text, r.sections(), worldEconomy),
		Tags:            r.list("tags"),
		Units:           DetectUnits(text, worldEconomy),
		TimeGranularity: granularity,
		TimeSigmaDays:   sigma,
	}
}

// docID returns the explicit doc id, the world-economy default, or empty.
func (r row) docID(facets map[string]string) string {
	if id := r.str("doc_id"); id != "" {
		return id
	}
	if facets["domain"] == core.DomainWorldEconomy {
		return WorldEconomyDocID
	}
	return ""
}

// unstructuredInput builds the store input for free text. The valid window
// opens on the first date found in the text; the transaction window spans
// that day.
func unstructuredInput(text, uri string) pvdb.ChunkInput {
	parsed := core.ParseDate(text)
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	tx := core.MakeWindow(day, day.AddDate(0, 0, 1))
	return pvdb.ChunkInput{
		Text:        text,
		URI:         uri,
		ValidWindow: core.MakeWindow(day, core.OpenEnd),
		TxWindow:    &tx,
		Authority:   AuthorityFromURI(uri),
		Metadata:    map[string]string{"uri": uri},
		Facets:      map[string]string{},
		Units:       DetectUnits(text, false),
	}
}
