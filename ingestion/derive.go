package ingestion

import (
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/chronorag/core"
)

// UnitUnknown labels a chunk whose units could not be detected.
const UnitUnknown = "n/a"

// Unit labels.
const (
	UnitIntl1990USD = "intl_1990_usd"
	UnitPercent     = "percent"
	UnitRatio       = "ratio"
)

// WorldEconomyDocID is the default document for world-economy rows.
const WorldEconomyDocID = "oecd-maddison:world_economy:v2006"

type keyword struct {
	phrase string
	label  string
}

var countryKeywords = []keyword{
	{"united states", "USA"},
	{"usa", "USA"},
	{"u.s.", "USA"},
	{"united kingdom", "GBR"},
	{"great britain", "GBR"},
	{"england", "GBR"},
	{"uk", "GBR"},
	{"france", "FRA"},
	{"germany", "DEU"},
	{"italy", "ITA"},
	{"spain", "ESP"},
	{"japan", "JPN"},
	{"china", "CHN"},
	{"india", "IND"},
	{"brazil", "BRA"},
	{"mexico", "MEX"},
	{"canada", "CAN"},
	{"russia", "RUS"},
}

var regionKeywords = []keyword{
	{"western europe", "Western Europe"},
	{"north america", "North America"},
	{"latin america", "Latin America"},
	{"south america", "South America"},
	{"european", "Europe"},
	{"europe", "Europe"},
	{"world", "World"},
	{"asia", "Asia"},
	{"africa", "Africa"},
	{"americas", "Americas"},
	{"oceania", "Oceania"},
	{"post-war", "Post-war"},
}

var (
	intl1990Pattern = regexp.MustCompile(`(?i)1990\s+international\s+dollars|1990\s+intl\.?\s*usd`)
	percentPattern  = regexp.MustCompile(`(?i)%|percent`)
	ratioPattern    = regexp.MustCompile(`(?i)ratio|per\s+capita`)
	wordChar        = regexp.MustCompile(`[a-z0-9]`)
)

// containsPhrase matches phrase in lowered text on word boundaries, so "uk"
// does not match inside "ukraine".
func containsPhrase(text, phrase string) bool {
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		before := start == 0 || !wordChar.MatchString(text[start-1:start])
		after := end == len(text) || !wordChar.MatchString(text[end:end+1])
		if before && after {
			return true
		}
		from = start + 1
	}
	return false
}

// DeriveEntities extracts indicator, country, region and dataset entities
// from the combined text and section headings. The result is sorted.
func DeriveEntities(text string, sections []string, worldEconomy bool) []string {
	parts := append([]string{text}, sections...)
	lowered := strings.ToLower(strings.Join(parts, " "))

	var entities []string
	if strings.Contains(lowered, "gdp per capita") || strings.Contains(lowered, "per capita gdp") {
		entities = append(entities, "GDP_PC")
	}
	if containsPhrase(lowered, "gdp") {
		entities = append(entities, "GDP")
	}
	if containsPhrase(lowered, "population") {
		entities = append(entities, "Population")
	}
	for _, kw := range countryKeywords {
		if containsPhrase(lowered, kw.phrase) {
			entities = append(entities, "Country:"+kw.label)
		}
	}
	for _, kw := range regionKeywords {
		if containsPhrase(lowered, kw.phrase) {
			entities = append(entities, "Region:"+kw.label)
		}
	}
	if worldEconomy {
		entities = append(entities, "Dataset:OECD_MADDISON")
	}
	return core.NormalizeSet(entities)
}

// DetectUnits returns the unit labels mentioned in text, or UnitUnknown.
// World-economy rows mentioning GDP are assumed to be in 1990 international
// dollars and per-capita figures are ratios.
func DetectUnits(text string, worldEconomy bool) []string {
	var units []string
	if intl1990Pattern.MatchString(text) {
		units = append(units, UnitIntl1990USD)
	}
	if percentPattern.MatchString(text) {
		units = append(units, UnitPercent)
	}
	if ratioPattern.MatchString(text) {
		units = append(units, UnitRatio)
	}
	if worldEconomy {
		lowered := strings.ToLower(text)
		if strings.Contains(lowered, "gdp") {
			units = append(units, UnitIntl1990USD)
		}
		if strings.Contains(lowered, "per capita") || strings.Contains(lowered, "per-capita") {
			units = append(units, UnitRatio)
		}
	}
	if len(units) == 0 {
		return []string{UnitUnknown}
	}
	slices.Sort(units)
	return slices.Compact(units)
}

// AuthorityFromURI scores a source by the kind of publisher its URI suggests.
func AuthorityFromURI(uri string) float64 {
	u := strings.ToLower(uri)
	switch {
	case strings.Contains(u, "sec") || strings.Contains(u, "filing"):
		return 1.0
	case strings.Contains(u, "regulator"):
		return 0.9
	case strings.Contains(u, "official") || strings.Contains(u, "company"):
		return 0.8
	case strings.Contains(u, "press") || strings.Contains(u, "news"):
		return 0.6
	case strings.Contains(u, "blog"):
		return 0.3
	default:
		return 0.2
	}
}
