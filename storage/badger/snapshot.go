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

package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/storage"
)

// SnapshotStore implements storage.SnapshotStore for BadgerDB.
// A save replaces every snap: key in a single transaction.
type SnapshotStore struct {
	backend *Backend
	now     func() time.Time
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a snapshot store on backend. The backend is not
// owned by the store; Close is a no-op.
func NewSnapshotStore(backend *Backend) *SnapshotStore {
	return &SnapshotStore{backend: backend, now: time.Now}
}

// SaveSnapshot persists snap, deleting keys left over from the previous save.
func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap *storage.Snapshot) error {
	savedAt := s.now().UTC()
	meta := storage.SnapshotMeta{SavedAt: savedAt, ChunkOrder: make([]string, 0, len(snap.Chunks))}
	for _, c := range snap.Chunks {
		meta.ChunkOrder = append(meta.ChunkOrder, c.ChunkID)
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keysWithPrefix(tx, []byte(snapshotPrefix)) {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for _, doc := range snap.Documents {
			if err := tx.Set(makeDocKey(doc.DocID), storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		for _, c := range snap.Chunks {
			if err := tx.Set(makeChunkKey(c.ChunkID), storage.MarshalChunk(c)); err != nil {
				return err
			}
		}
		for ext, chunkID := range snap.ExternalIndex {
			if err := tx.Set(makeExtKey(ext), []byte(chunkID)); err != nil {
				return err
			}
		}
		if err := tx.Set([]byte(snapshotMetaKey), storage.MarshalSnapshotMeta(meta)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	snap.SavedAt = savedAt
	s.backend.logger.Debug("snapshot saved", "documents", len(snap.Documents), "chunks", len(snap.Chunks))
	return nil
}

// LoadSnapshot reads the stored snapshot. Chunks come back in the order
// they were saved.
func (s *SnapshotStore) LoadSnapshot(ctx context.Context) (*storage.Snapshot, error) {
	snap := &storage.Snapshot{ExternalIndex: make(map[string]string)}
	chunks := make(map[string]*core.ChunkRecord)
	var meta storage.SnapshotMeta

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(snapshotMetaKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrSnapshotNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			meta, err = storage.UnmarshalSnapshotMeta(val)
			return err
		}); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(snapshotPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			key := item.Key()
			switch {
			case bytes.HasPrefix(key, []byte(snapshotDocPrefix)):
				err = item.Value(func(val []byte) error {
					doc, err := storage.UnmarshalDocument(val)
					if err == nil {
						snap.Documents = append(snap.Documents, doc)
					}
					return err
				})
			case bytes.HasPrefix(key, []byte(snapshotChkPrefix)):
				err = item.Value(func(val []byte) error {
					chunk, err := storage.UnmarshalChunk(val)
					if err == nil {
						chunks[chunk.ChunkID] = chunk
					}
					return err
				})
			case bytes.HasPrefix(key, []byte(snapshotExtPrefix)):
				ext := strings.TrimPrefix(string(key), snapshotExtPrefix)
				err = item.Value(func(val []byte) error {
					snap.ExternalIndex[ext] = string(val)
					return nil
				})
			}
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		if errors.Is(err, storage.ErrSnapshotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	for _, id := range meta.ChunkOrder {
		if c, ok := chunks[id]; ok {
			snap.Chunks = append(snap.Chunks, c)
			delete(chunks, id)
		}
	}
	if len(chunks) > 0 {
		s.backend.logger.Warn("snapshot chunks missing from order marker", "count", len(chunks))
	}
	snap.SavedAt = meta.SavedAt
	return snap, nil
}

// Close is a no-op; the backend is closed by its owner.
func (s *SnapshotStore) Close() error {
	return nil
}
