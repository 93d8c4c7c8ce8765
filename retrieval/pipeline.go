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


package retrieval

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/ai/heuristic"
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/policy"
	"github.com/poiesic/chronorag/pvdb"
)

// DefaultTopK is used when a request does not set TopK.
const DefaultTopK = 5

// PolicySource supplies the current policy snapshot.
type PolicySource interface {
	Current() *policy.Snapshot
}

// Request describes one retrieval.
type Request struct {
	Query  string
	Window core.TimeWindow
	Mode   core.Mode
	TopK   int
	Axis   core.Axis
	// Domain is inferred from Query when empty.
	Domain string
}

// Result is one ranked chunk.
type Result struct {
	ChunkID         string            `json:"chunk_id"`
	DocID           string            `json:"doc_id"`
	Text            string            `json:"text"`
	URI             string            `json:"uri"`
	ValidWindow     core.TimeWindow   `json:"valid_window"`
	Authority       float64           `json:"authority"`
	Rerank          float64           `json:"rerank"`
	FinalScore      float64           `json:"final_score"`
	TimeWeight      float64           `json:"time_weight"`
	Facets          map[string]string `json:"facets,omitempty"`
	Entities        []string          `json:"entities,omitempty"`
	Units           []string          `json:"units_detected,omitempty"`
	TimeGranularity string            `json:"time_granularity,omitempty"`
	TimeSigmaDays   *int              `json:"time_sigma_days,omitempty"`
	Region          string            `json:"region,omitempty"`
}

// Response is the ranked result set.
type Response struct {
	Query         string         `json:"query"`
	Domain        string         `json:"domain"`
	Results       []Result       `json:"results"`
	WeightsUsed   policy.Weights `json:"weights_used"`
	PolicyVersion string         `json:"policy_version"`
}

// Authorities returns the authority of every result, in rank order.
func (r *Response) Authorities() []float64 {
	out := make([]float64, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Authority
	}
	return out
}

// Pipeline runs hybrid retrieval against a store.
type Pipeline struct {
	store      *pvdb.Store
	policies   PolicySource
	encoder    ai.CrossEncoder
	judge      ai.Judge
	classifier ai.IntentClassifier
	monitor    Monitor
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "retrieval")
	}
}

// WithMonitor installs a Monitor. Default records nothing.
func WithMonitor(m Monitor) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.monitor = m
		}
	}
}

// WithCrossEncoder sets the reranker. Without one, rerank scores are absent.
func WithCrossEncoder(encoder ai.CrossEncoder) Option {
	return func(p *Pipeline) { p.encoder = encoder }
}

// WithJudge sets the LLM judge. It is consulted only when Enabled.
func WithJudge(judge ai.Judge) Option {
	return func(p *Pipeline) { p.judge = judge }
}

// WithIntentClassifier sets the classifier used for requests without a domain.
func WithIntentClassifier(classifier ai.IntentClassifier) Option {
	return func(p *Pipeline) {
		if classifier != nil {
			p.classifier = classifier
		}
	}
}

// New creates a pipeline.
func New(store *pvdb.Store, policies PolicySource, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if policies == nil {
		return nil, ErrPolicyRequired
	}
	p := &Pipeline{
		store:      store,
		policies:   policies,
		classifier: heuristic.NewKeywordClassifier(),
		monitor:    &noopMonitor{},
		logger:     slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type candidate struct {
	chunk   *core.ChunkRecord
	lexical float64
	vector  float64
}

func (c *candidate) hybrid() float64 { return c.lexical + c.vector }

// Retrieve returns the top-k chunks for req ranked by fused score.
func (p *Pipeline) Retrieve(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	mode := core.ParseMode(string(req.Mode))
	snap := p.policies.Current()
	domain := req.Domain
	if domain == "" {
		domain = p.classify(ctx, req.Query)
	}
	weights := snap.WeightsFor(domain)
	p.monitor.Start(req.Query, domain)

	lexK, vecK, rerankLimit := fanout(domain, topK)

	stageStart := time.Now()
	candidates := p.gatherCandidates(ctx, req.Query, lexK, vecK)
	p.monitor.StageCompleted(StageCandidates, time.Since(stageStart))

	stageStart = time.Now()
	chunks := make([]*core.ChunkRecord, len(candidates))
	for i, c := range candidates {
		chunks[i] = c.chunk
	}
	timeWeights := make(map[string]float64)
	for _, wc := range pvdb.TemporalFilter(chunks, req.Window, mode) {
		timeWeights[wc.Chunk.ChunkID] = wc.Weight
	}
	ranked := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := timeWeights[c.chunk.ChunkID]; ok {
			ranked = append(ranked, c)
		}
	}
	slices.SortStableFunc(ranked, func(a, b *candidate) int {
		return cmp.Compare(b.hybrid(), a.hybrid())
	})
	if len(ranked) > rerankLimit {
		ranked = ranked[:rerankLimit]
	}
	p.monitor.StageCompleted(StageFilter, time.Since(stageStart))

	stageStart = time.Now()
	rerank, judged := p.rerank(ctx, req, ranked, timeWeights)
	p.monitor.StageCompleted(StageRerank, time.Since(stageStart))

	stageStart = time.Now()
	results := make([]Result, 0, len(ranked))
	for _, c := range ranked {
		chunk := c.chunk
		id := chunk.ChunkID
		rank := blendRank(c.hybrid(), rerank, judged, id)
		rank = min(1, rank+UnitsBias(chunk.Units))
		tw := timeWeights[id]
		final := MonotoneTemporalFusion(
			rank,
			tw,
			chunk.Authority,
			core.TxMismatchPenalty(chunk.ValidWindow, chunk.TxWindow),
			AgePenalty(req.Window, chunk.ValidWindow),
			weights,
		)
		results = append(results, newResult(chunk, rank, final, tw))
	}
	applyRegionDiversity(results)
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.FinalScore, a.FinalScore)
	})
	if len(results) > topK {
		results = results[:topK]
	}
	p.monitor.StageCompleted(StageFusion, time.Since(stageStart))
	p.monitor.Finish(domain, results)

	p.logger.Debug("retrieval complete",
		"domain", domain,
		"mode", mode,
		"candidates", len(candidates),
		"reranked", len(ranked),
		"results", len(results))

	return &Response{
		Query:         req.Query,
		Domain:        domain,
		Results:       results,
		WeightsUsed:   weights,
		PolicyVersion: snap.Version(),
	}, nil
}

// blendRank averages the cross-encoder and judge scores when both exist,
// uses whichever one exists otherwise, and falls back to hybrid.
func blendRank(hybrid float64, rerank, judged map[string]float64, id string) float64 {
	rs, hasRerank := rerank[id]
	js, hasJudge := judged[id]
	switch {
	case hasRerank && hasJudge:
		return (rs + js) / 2
	case hasRerank:
		return rs
	case hasJudge:
		return js
	default:
		return hybrid
	}
}

func (p *Pipeline) classify(ctx context.Context, query string) string {
	intent, err := p.classifier.ClassifyIntent(ctx, query)
	if err != nil {
		p.capabilityFailed(CapabilityIntent, err)
		return core.DomainGeneric
	}
	if intent.Domain == "" {
		return core.DomainGeneric
	}
	return intent.Domain
}

// gatherCandidates runs lexical and vector search concurrently and merges
// them, keeping the best score per chunk from each side. Lexical hits come
// first in the merged order.
func (p *Pipeline) gatherCandidates(ctx context.Context, query string, lexK, vecK int) []*candidate {
	var (
		corpus  []*core.ChunkRecord
		lexical []lexicalHit
		vector  []pvdb.ScoredChunk
	)

	var g errgroup.Group
	g.Go(func() error {
		corpus = p.store.ListChunks()
		hits, err := lexicalSearch(ctx, corpus, query, lexK)
		if err != nil {
			p.logger.Warn("lexical search failed", "err", err)
			return nil
		}
		lexical = hits
		return nil
	})
	g.Go(func() error {
		hits, err := p.store.ANNSearch(ctx, query, vecK)
		if err != nil {
			p.capabilityFailed(CapabilityEmbedder, err)
			return nil
		}
		vector = hits
		return nil
	})
	_ = g.Wait()

	merged := make([]*candidate, 0, len(lexical)+len(vector))
	byID := make(map[string]*candidate, cap(merged))
	get := func(chunk *core.ChunkRecord) *candidate {
		if c, ok := byID[chunk.ChunkID]; ok {
			return c
		}
		c := &candidate{chunk: chunk}
		byID[chunk.ChunkID] = c
		merged = append(merged, c)
		return c
	}
	for _, hit := range lexical {
		c := get(corpus[hit.pos])
		c.lexical = max(c.lexical, hit.score)
	}
	for _, hit := range vector {
		c := get(hit.Chunk)
		c.vector = max(c.vector, hit.Score)
	}
	return merged
}

// rerank runs the cross-encoder and the judge concurrently. The judge sees
// lexical+vector as its base score since rerank scores are not yet known.
func (p *Pipeline) rerank(ctx context.Context, req Request, ranked []*candidate, timeWeights map[string]float64) (map[string]float64, map[string]float64) {
	var (
		rerank map[string]float64
		judged map[string]float64
	)
	if len(ranked) == 0 {
		return rerank, judged
	}

	var g errgroup.Group
	if p.encoder != nil {
		g.Go(func() error {
			texts := make([]string, len(ranked))
			for i, c := range ranked {
				texts[i] = c.chunk.Text
			}
			scores, err := p.encoder.Rerank(ctx, req.Query, texts)
			if err != nil {
				p.capabilityFailed(CapabilityCrossEncoder, err)
				return nil
			}
			rerank = make(map[string]float64, len(scores))
			for _, s := range scores {
				if s.Index >= 0 && s.Index < len(ranked) {
					rerank[ranked[s.Index].chunk.ChunkID] = s.Score
				}
			}
			return nil
		})
	}
	if p.judge != nil && p.judge.Enabled() {
		g.Go(func() error {
			features := make([]ai.JudgeFeature, len(ranked))
			for i, c := range ranked {
				features[i] = ai.JudgeFeature{
					ID:         c.chunk.ChunkID,
					Text:       c.chunk.Text,
					Base:       c.hybrid(),
					TimeWeight: timeWeights[c.chunk.ChunkID],
					Authority:  c.chunk.Authority,
				}
			}
			scores, err := p.judge.Judge(ctx, ai.JudgeRequest{
				Query:    req.Query,
				Axis:     req.Axis,
				Window:   req.Window,
				Passages: features,
			})
			if err != nil {
				p.capabilityFailed(CapabilityJudge, err)
				return nil
			}
			judged = scores
			return nil
		})
	}
	_ = g.Wait()
	return rerank, judged
}

func (p *Pipeline) capabilityFailed(capability string, err error) {
	p.logger.Warn("capability failed, dropping signal", "capability", capability, "err", err)
	p.monitor.CapabilityFailed(capability, err)
}

func newResult(chunk *core.ChunkRecord, rank, final, tw float64) Result {
	return Result{
		ChunkID:         chunk.ChunkID,
		DocID:           chunk.DocID,
		Text:            chunk.Text,
		URI:             chunk.URI,
		ValidWindow:     chunk.ValidWindow,
		Authority:       chunk.Authority,
		Rerank:          rank,
		FinalScore:      final,
		TimeWeight:      tw,
		Facets:          chunk.Facets,
		Entities:        chunk.Entities,
		Units:           chunk.Units,
		TimeGranularity: chunk.TimeGranularity,
		TimeSigmaDays:   chunk.TimeSigmaDays,
		Region:          chunk.Region(),
	}
}
