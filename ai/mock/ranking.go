package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/core"
)

// MockCrossEncoder is a test double for ai.CrossEncoder.
type MockCrossEncoder struct {
	ReadyFunc  func(ctx context.Context) error
	RerankFunc func(ctx context.Context, query string, passages []string) ([]ai.RerankScore, error)

	callCount atomic.Int64
}

// NewMockCrossEncoder returns a cross-encoder that scores every passage 0.5.
func NewMockCrossEncoder() *MockCrossEncoder {
	return &MockCrossEncoder{}
}

func (m *MockCrossEncoder) Name() string { return "mock-cross-encoder" }

func (m *MockCrossEncoder) Ready(ctx context.Context) error {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return nil
}

func (m *MockCrossEncoder) Rerank(ctx context.Context, query string, passages []string) ([]ai.RerankScore, error) {
	m.callCount.Add(1)
	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, passages)
	}
	out := make([]ai.RerankScore, len(passages))
	for i := range passages {
		out[i] = ai.RerankScore{Index: i, Score: 0.5}
	}
	return out, nil
}

// CallCount returns the number of Rerank calls.
func (m *MockCrossEncoder) CallCount() int { return int(m.callCount.Load()) }

// MockJudge is a test double for ai.Judge.
type MockJudge struct {
	EnabledValue bool
	JudgeFunc    func(ctx context.Context, req ai.JudgeRequest) (map[string]float64, error)

	callCount atomic.Int64
}

// NewMockJudge returns an enabled judge that echoes base scores.
func NewMockJudge() *MockJudge {
	return &MockJudge{EnabledValue: true}
}

func (m *MockJudge) Name() string { return "mock-judge" }

func (m *MockJudge) Ready(context.Context) error { return nil }

func (m *MockJudge) Enabled() bool { return m.EnabledValue }

func (m *MockJudge) Judge(ctx context.Context, req ai.JudgeRequest) (map[string]float64, error) {
	m.callCount.Add(1)
	if m.JudgeFunc != nil {
		return m.JudgeFunc(ctx, req)
	}
	out := make(map[string]float64, len(req.Passages))
	for _, p := range req.Passages {
		out[p.ID] = p.Base
	}
	return out, nil
}

// CallCount returns the number of Judge calls.
func (m *MockJudge) CallCount() int { return int(m.callCount.Load()) }

// MockIntentClassifier is a test double for ai.IntentClassifier.
type MockIntentClassifier struct {
	Intent     core.Intent
	ClassifyFn func(ctx context.Context, query string) (core.Intent, error)
}

// NewMockIntentClassifier returns a classifier that always answers the given domain.
func NewMockIntentClassifier(domain string) *MockIntentClassifier {
	return &MockIntentClassifier{Intent: core.Intent{Domain: domain, Target: "general"}}
}

func (m *MockIntentClassifier) Name() string { return "mock-intent" }

func (m *MockIntentClassifier) Ready(context.Context) error { return nil }

func (m *MockIntentClassifier) ClassifyIntent(ctx context.Context, query string) (core.Intent, error) {
	if m.ClassifyFn != nil {
		return m.ClassifyFn(ctx, query)
	}
	return m.Intent, nil
}
