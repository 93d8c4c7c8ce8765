package pvdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/index"
	"github.com/poiesic/chronorag/storage"
)

// Store holds documents and chunks in memory and snapshots them to a SnapshotStore.
type Store struct {
	index     *index.Index
	snapshots storage.SnapshotStore
	logger    *slog.Logger

	mu         sync.RWMutex
	documents  map[string]*core.DocumentRecord
	chunks     map[string]*core.ChunkRecord
	order      []string
	externalIx map[string]string
	dirty      bool
	generation uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSnapshotStore enables persistence. Without one, Flush and Clear only
// touch memory.
func WithSnapshotStore(snapshots storage.SnapshotStore) Option {
	return func(s *Store) {
		s.snapshots = snapshots
	}
}

// New creates an empty store registering chunks with ix.
func New(ix *index.Index, opts ...Option) *Store {
	s := &Store{
		index:      ix,
		logger:     slog.Default(),
		documents:  make(map[string]*core.DocumentRecord),
		chunks:     make(map[string]*core.ChunkRecord),
		externalIx: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "pvdb")
	return s
}

// Open creates a store and loads the last snapshot, re-registering every
// chunk with the index. A missing snapshot is not an error; a snapshot that
// fails to load is logged and leaves the store empty.
func Open(ctx context.Context, ix *index.Index, opts ...Option) *Store {
	s := New(ix, opts...)
	if s.snapshots == nil {
		return s
	}
	snap, err := s.snapshots.LoadSnapshot(ctx)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		return s
	}
	if err != nil {
		s.logger.Error("failed to load snapshot; starting empty", "err", err)
		return s
	}
	s.restore(ctx, snap)
	return s
}

func (s *Store) restore(ctx context.Context, snap *storage.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range snap.Documents {
		s.documents[doc.DocID] = doc
	}
	for _, chunk := range snap.Chunks {
		s.chunks[chunk.ChunkID] = chunk
		s.order = append(s.order, chunk.ChunkID)
		s.register(ctx, chunk)
	}
	maps.Copy(s.externalIx, snap.ExternalIndex)
	s.logger.Info("snapshot loaded", "documents", len(s.documents), "chunks", len(s.chunks))
}

// register adds chunk to the index, re-embedding when its stored vector is
// missing or no longer fits the index. Caller holds the write lock.
func (s *Store) register(ctx context.Context, chunk *core.ChunkRecord) {
	meta := indexMeta(chunk)
	if len(chunk.Vector) > 0 {
		err := s.index.AddVector(chunk.ChunkID, chunk.Vector, meta)
		if err == nil {
			return
		}
		if !errors.Is(err, index.ErrDimensionMismatch) {
			s.logger.Warn("failed to register chunk vector", "chunk_id", chunk.ChunkID, "err", err)
			return
		}
	}
	vec, err := s.index.Add(ctx, chunk.ChunkID, chunk.Text, meta)
	if err != nil {
		s.logger.Warn("failed to embed chunk", "chunk_id", chunk.ChunkID, "err", err)
		chunk.Vector = nil
		return
	}
	chunk.Vector = vec
}

func indexMeta(chunk *core.ChunkRecord) map[string]string {
	return map[string]string{
		"doc_id":      chunk.DocID,
		"uri":         chunk.URI,
		"domain":      chunk.Facets["domain"],
		"external_id": chunk.ExternalID,
	}
}

// NewChunkID returns a dashless random UUID.
func NewChunkID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Ingest stores a new chunk and applies lineage closure to the previous
// chunk with the same external id. Embedding happens before the write lock
// is taken; an embedding failure stores the chunk without a vector.
func (s *Store) Ingest(ctx context.Context, in ChunkInput) (*core.ChunkRecord, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidChunk, core.ErrEmptyText)
	}

	vector := in.Vector
	if len(vector) == 0 {
		vecs, err := s.index.Encode(ctx, []string{in.Text})
		if err != nil {
			s.logger.Warn("embedding unavailable; storing chunk without vector", "uri", in.URI, "err", err)
		} else {
			vector = vecs[0]
		}
	}

	docID := in.DocID
	if docID == "" {
		docID = core.DocIDFromURI(in.URI)
	}

	chunk := &core.ChunkRecord{
		ChunkID:         NewChunkID(),
		DocID:           docID,
		Text:            in.Text,
		URI:             in.URI,
		Authority:       core.ClampUnit(in.Authority),
		ValidWindow:     core.MakeWindow(in.ValidWindow.Start, in.ValidWindow.End),
		ExternalID:      in.ExternalID,
		VersionID:       in.VersionID,
		Facets:          maps.Clone(in.Facets),
		Entities:        core.NormalizeSet(in.Entities),
		Tags:            core.NormalizeSet(in.Tags),
		Units:           core.NormalizeSet(in.Units),
		TimeGranularity: in.TimeGranularity,
		Extra:           maps.Clone(in.Metadata),
	}
	if chunk.Facets == nil {
		chunk.Facets = map[string]string{}
	}
	if in.TxWindow != nil {
		tx := core.MakeWindow(in.TxWindow.Start, in.TxWindow.End)
		chunk.TxWindow = &tx
	}
	if in.TimeSigmaDays != nil {
		sigma := *in.TimeSigmaDays
		chunk.TimeSigmaDays = &sigma
	}
	if err := core.ValidateChunkRecord(chunk); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.ensureDocument(docID)
	maps.Copy(doc.Metadata, in.Metadata)

	if len(vector) > 0 {
		if err := s.index.AddVector(chunk.ChunkID, vector, indexMeta(chunk)); err != nil {
			s.logger.Warn("failed to register chunk vector", "chunk_id", chunk.ChunkID, "err", err)
		} else {
			chunk.Vector = slices.Clone(vector)
		}
	}

	if chunk.ExternalID != "" {
		if prevID, ok := s.externalIx[chunk.ExternalID]; ok {
			if prev, ok := s.chunks[prevID]; ok {
				closeLineage(prev, chunk)
			}
		}
		s.externalIx[chunk.ExternalID] = chunk.ChunkID
	}

	s.chunks[chunk.ChunkID] = chunk
	s.order = append(s.order, chunk.ChunkID)
	doc.ChunkIDs = append(doc.ChunkIDs, chunk.ChunkID)
	s.markDirty()

	return chunk.Clone(), nil
}

// closeLineage ends prev's transaction window where next's begins. The end
// is never earlier than prev's own transaction start, or its valid start
// when it had no transaction window.
func closeLineage(prev, next *core.ChunkRecord) {
	if next.TxWindow != nil {
		start := prev.ValidWindow.Start
		if prev.TxWindow != nil {
			start = prev.TxWindow.Start
		}
		end := next.TxWindow.Start
		if end.Before(start) {
			end = start
		}
		prev.TxWindow = &core.TimeWindow{Start: start, End: end}
	}
	if prev.VersionID == "" {
		prev.VersionID = next.VersionID
	}
}

// ensureDocument returns the document, creating a placeholder. Caller holds the write lock.
func (s *Store) ensureDocument(docID string) *core.DocumentRecord {
	doc, ok := s.documents[docID]
	if !ok {
		doc = &core.DocumentRecord{DocID: docID, Metadata: map[string]string{}}
		s.documents[docID] = doc
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}
	return doc
}

func (s *Store) markDirty() {
	s.dirty = true
	s.generation++
}

// UpsertDocumentMetadata merges updates into the document's metadata,
// creating the document when absent. Later keys overwrite.
func (s *Store) UpsertDocumentMetadata(docID string, updates map[string]string) error {
	if docID == "" {
		return fmt.Errorf("%w: %w", core.ErrInvalidDocument, core.ErrEmptyDocID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.ensureDocument(docID)
	maps.Copy(doc.Metadata, updates)
	s.markDirty()
	return nil
}

// ListChunks returns copies of every chunk in ingest order.
func (s *Store) ListChunks() []*core.ChunkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.ChunkRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.chunks[id].Clone())
	}
	return out
}

// ChunksByIDs returns copies of the known chunks among ids, in the order given.
func (s *Store) ChunksByIDs(ids []string) []*core.ChunkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.ChunkRecord, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Chunk returns a copy of one chunk.
func (s *Store) Chunk(id string) (*core.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, id)
	}
	return c.Clone(), nil
}

// Document returns a copy of one document.
func (s *Store) Document(id string) (*core.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return d.Clone(), nil
}

// Documents returns copies of every document, ordered by id.
func (s *Store) Documents() []*core.DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(s.documents))
	out := make([]*core.DocumentRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.documents[id].Clone())
	}
	return out
}

// Len returns the number of chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Dirty reports whether there are unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ANNSearch runs a vector search and resolves hits to chunks. Hits whose
// chunk is unknown are dropped.
func (s *Store) ANNSearch(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	hits, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ScoredChunk, 0, len(hits))
	for _, h := range hits {
		if c, ok := s.chunks[h.ID]; ok {
			out = append(out, ScoredChunk{Chunk: c.Clone(), Score: h.Score})
		}
	}
	return out, nil
}

// TemporalFilter keeps chunks whose valid window intersects window with
// weight 1 in HARD mode, and chunks with a positive decay weight otherwise.
func TemporalFilter(chunks []*core.ChunkRecord, window core.TimeWindow, mode core.Mode) []WeightedChunk {
	out := make([]WeightedChunk, 0, len(chunks))
	for _, c := range chunks {
		if mode == core.ModeHard {
			if core.HardModePreMask(c.ValidWindow, window) {
				out = append(out, WeightedChunk{Chunk: c, Weight: 1})
			}
			continue
		}
		if w := core.IntelligentDecay(c.ValidWindow, window); w > 0 {
			out = append(out, WeightedChunk{Chunk: c, Weight: w})
		}
	}
	return out
}

// TemporalFilter is the method form of the package-level TemporalFilter.
func (s *Store) TemporalFilter(chunks []*core.ChunkRecord, window core.TimeWindow, mode core.Mode) []WeightedChunk {
	return TemporalFilter(chunks, window, mode)
}

// Flush saves a snapshot when the store has unsaved changes. A failed save
// leaves the store dirty so the next Flush retries.
func (s *Store) Flush(ctx context.Context) error {
	return s.persist(ctx, false)
}

// Clear drops every document, chunk and index entry and saves the empty state.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.documents = make(map[string]*core.DocumentRecord)
	s.chunks = make(map[string]*core.ChunkRecord)
	s.externalIx = make(map[string]string)
	s.order = nil
	s.index.Reset()
	s.markDirty()
	s.mu.Unlock()

	s.logger.Info("store cleared")
	return s.persist(ctx, true)
}

func (s *Store) persist(ctx context.Context, force bool) error {
	s.mu.RLock()
	if !s.dirty && !force {
		s.mu.RUnlock()
		return nil
	}
	if s.snapshots == nil {
		s.mu.RUnlock()
		s.mu.Lock()
		s.dirty = false
		s.mu.Unlock()
		return nil
	}
	snap := s.snapshotLocked()
	gen := s.generation
	s.mu.RUnlock()

	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Error("failed to save snapshot", "err", err)
		return fmt.Errorf("flush: %w", err)
	}

	s.mu.Lock()
	if s.generation == gen {
		s.dirty = false
	}
	s.mu.Unlock()
	s.logger.Debug("snapshot flushed", "chunks", len(snap.Chunks))
	return nil
}

// snapshotLocked deep-copies the current state. Caller holds at least a read lock.
func (s *Store) snapshotLocked() *storage.Snapshot {
	snap := &storage.Snapshot{
		Documents:     make([]*core.DocumentRecord, 0, len(s.documents)),
		Chunks:        make([]*core.ChunkRecord, 0, len(s.order)),
		ExternalIndex: maps.Clone(s.externalIx),
	}
	for _, id := range slices.Sorted(maps.Keys(s.documents)) {
		snap.Documents = append(snap.Documents, s.documents[id].Clone())
	}
	for _, id := range s.order {
		snap.Chunks = append(snap.Chunks, s.chunks[id].Clone())
	}
	return snap
}
