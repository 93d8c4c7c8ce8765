package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/chronorag/policy"
	"github.com/poiesic/chronorag/pvdb"
	"github.com/poiesic/chronorag/storage"
)

const (
	defaultBatchSize      = 16
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 200 * time.Millisecond
)

// PolicySource yields the current policy snapshot.
type PolicySource interface {
	Current() *policy.Snapshot
}

// Encoder turns texts into vectors. *index.Index satisfies it.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Request names the payloads to ingest. Paths are read as files; Texts are
// ingested inline. Provenance, when set, overrides every derived URI.
type Request struct {
	Paths      []string
	Texts      []string
	Provenance string
}

// Service ingests payloads into the versioned store.
type Service struct {
	store    *pvdb.Store
	policies PolicySource
	cache    storage.Cache
	encoder  Encoder

	embeddingPool  *ants.Pool
	batchSize      int
	retryAttempts  int
	retryBaseDelay time.Duration

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithPoolSize sets the embedding prefetch pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.embeddingPool != nil {
			s.embeddingPool.Release()
		}
		s.embeddingPool = pool
		return nil
	}
}

// WithBatchSize sets how many texts go into one prefetch request.
func WithBatchSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		s.batchSize = size
		return nil
	}
}

// WithRetry configures prefetch retries.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(s *Service) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		s.retryAttempts = maxAttempts
		s.retryBaseDelay = baseDelay
		return nil
	}
}

// WithEncoder enables embedding prefetch. Without one the store embeds each
// chunk itself.
func WithEncoder(encoder Encoder) Option {
	return func(s *Service) error {
		s.encoder = encoder
		return nil
	}
}

// WithCache sets the cache that receives freshness markers.
func WithCache(cache storage.Cache) Option {
	return func(s *Service) error {
		s.cache = cache
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "ingestion")
		return nil
	}
}

// WithClock overrides the time source used for freshness markers.
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// New creates an ingestion service. Call Release when done.
func New(store *pvdb.Store, policies PolicySource, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if policies == nil {
		return nil, ErrPolicyRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:          store,
		policies:       policies,
		embeddingPool:  pool,
		batchSize:      defaultBatchSize,
		retryAttempts:  defaultRetryAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		now:            time.Now,
		logger:         slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}
	return s, nil
}

// Release shuts down the worker pool.
func (s *Service) Release() {
	if s.embeddingPool != nil {
		s.embeddingPool.Release()
		s.embeddingPool = nil
	}
}

// operation is one planned write: a chunk or a document metadata upsert.
type operation struct {
	chunk  *pvdb.ChunkInput
	docID  string
	ledger map[string]string
}

// Ingest reads every path and inline text, writes the resulting chunks in
// input order and flushes once. It returns the new chunk ids. Missing files
// are skipped; a failed flush is logged and retried on the next one.
func (s *Service) Ingest(ctx context.Context, req Request) ([]string, error) {
	var ops []operation
	for _, path := range req.Paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Warn("skipping missing file", "path", path)
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		uri := req.Provenance
		if uri == "" {
			uri = filepath.Base(path)
		}
		ops = append(ops, plan(string(data), uri)...)
	}
	for i, text := range req.Texts {
		uri := req.Provenance
		if uri == "" {
			uri = fmt.Sprintf("inline:%d", i)
		}
		ops = append(ops, plan(text, uri)...)
	}

	s.prefetch(ctx, ops)

	snap := s.policies.Current()
	var ids []string
	for _, op := range ops {
		if op.chunk == nil {
			if err := s.store.UpsertDocumentMetadata(op.docID, op.ledger); err != nil {
				s.logger.Warn("ledger update rejected", "doc_id", op.docID, "err", err)
			}
			continue
		}
		chunk, err := s.store.Ingest(ctx, *op.chunk)
		if err != nil {
			s.logger.Warn("chunk rejected", "uri", op.chunk.URI, "err", err)
			continue
		}
		ids = append(ids, chunk.ChunkID)
		s.markFreshness(ctx, snap.Config().Freshness, chunk.Entities, chunk.URI)
	}

	if err := s.store.Flush(ctx); err != nil {
		s.logger.Warn("flush failed; will retry on next flush", "err", err)
	}
	s.logger.Info("ingest complete", "paths", len(req.Paths), "texts", len(req.Texts), "chunks", len(ids))
	return ids, nil
}

// plan turns one payload into store operations.
func plan(payload, uri string) []operation {
	rows, ok := parseRows(payload)
	if !ok {
		if strings.TrimSpace(payload) == "" {
			return nil
		}
		in := unstructuredInput(payload, uri)
		return []operation{{chunk: &in}}
	}

	ops := make([]operation, 0, len(rows))
	for _, r := range rows {
		if text, ok := r["text"].(string); ok && strings.TrimSpace(text) != "" {
			in := r.chunkInput(text, uri)
			ops = append(ops, operation{chunk: &in})
			continue
		}
		updates := r.ledgerUpdates()
		if len(updates) == 0 {
			continue
		}
		docID := r.docID(r.facets())
		if docID == "" {
			docID = WorldEconomyDocID
		}
		ops = append(ops, operation{docID: docID, ledger: updates})
	}
	return ops
}

// prefetch embeds chunk texts in batches on the worker pool. Batches that
// still fail after retries leave their chunks without a vector.
func (s *Service) prefetch(ctx context.Context, ops []operation) {
	if s.encoder == nil || s.embeddingPool == nil {
		return
	}
	var pending []*pvdb.ChunkInput
	for _, op := range ops {
		if op.chunk != nil && len(op.chunk.Vector) == 0 {
			pending = append(pending, op.chunk)
		}
	}

	var wg sync.WaitGroup
	for start := 0; start < len(pending); start += s.batchSize {
		batch := pending[start:min(start+s.batchSize, len(pending))]
		wg.Add(1)
		err := s.embeddingPool.Submit(func() {
			defer wg.Done()
			s.embedBatch(ctx, batch)
		})
		if err != nil {
			wg.Done()
			s.logger.Warn("failed to submit embedding batch", "size", len(batch), "err", err)
		}
	}
	wg.Wait()
}

func (s *Service) embedBatch(ctx context.Context, batch []*pvdb.ChunkInput) {
	texts := make([]string, len(batch))
	for i, in := range batch {
		texts[i] = in.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, s.logger, func() error {
		var err error
		vectors, err = s.encoder.Encode(ctx, texts)
		return err
	}, s.retryAttempts, s.retryBaseDelay)
	if err != nil {
		s.logger.Warn("embedding prefetch failed", "size", len(batch), "err", err)
		return
	}
	if len(vectors) != len(batch) {
		s.logger.Warn("embedding count mismatch", "expected", len(batch), "got", len(vectors))
		return
	}
	// Each batch owns a disjoint set of inputs.
	for i, in := range batch {
		in.Vector = vectors[i]
	}
}

type freshnessMarker struct {
	Epoch   float64 `json:"epoch"`
	Trigger string  `json:"trigger"`
}

// markFreshness marks every entity of a chunk from a triggering source.
func (s *Service) markFreshness(ctx context.Context, cfg policy.Freshness, entities []string, uri string) {
	if s.cache == nil || len(entities) == 0 {
		return
	}
	lowered := strings.ToLower(uri)
	triggered := false
	for _, trigger := range cfg.Triggers {
		if trigger != "" && strings.Contains(lowered, strings.ToLower(trigger)) {
			triggered = true
			break
		}
	}
	if !triggered {
		return
	}

	now := s.now()
	value, err := json.Marshal(freshnessMarker{
		Epoch:   float64(now.UnixNano()) / float64(time.Second),
		Trigger: uri,
	})
	if err != nil {
		return
	}
	ttl := time.Duration(cfg.MarkerIntervalMinutes) * time.Minute
	for _, entity := range entities {
		if err := s.cache.Set(ctx, FreshnessKey(entity), value, ttl); err != nil {
			s.logger.Warn("failed to write freshness marker", "entity", entity, "err", err)
		}
	}
}

// FreshnessKey is the cache key of an entity's freshness marker.
func FreshnessKey(entity string) string {
	return "freshness:" + entity
}
