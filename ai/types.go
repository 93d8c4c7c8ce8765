package ai

import "github.com/poiesic/chronorag/core"

// RerankScore is a cross-encoder score for the passage at Index.
type RerankScore struct {
	Index int
	Score float64
}

// JudgeFeature is the per-candidate evidence handed to a Judge.
type JudgeFeature struct {
	ID         string
	Text       string
	Base       float64
	TimeWeight float64
	Authority  float64
}

// JudgeRequest bundles the query context and candidate features.
type JudgeRequest struct {
	Query    string
	Axis     core.Axis
	Window   core.TimeWindow
	Passages []JudgeFeature
}
