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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/chronorag/core"
)

// SnapshotMeta is the marker record written alongside a snapshot.
type SnapshotMeta struct {
	SavedAt    time.Time
	ChunkOrder []string
}

var chunkOrderMUS = ord.NewSliceSer[string](ord.String)

func MarshalChunk(record *core.ChunkRecord) []byte {
	buf := make([]byte, core.ChunkRecordMUS.Size(*record))
	core.ChunkRecordMUS.Marshal(*record, buf)
	return buf
}

func UnmarshalChunk(data []byte) (*core.ChunkRecord, error) {
	record, _, err := core.ChunkRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

func MarshalDocument(doc *core.DocumentRecord) []byte {
	buf := make([]byte, core.DocumentRecordMUS.Size(*doc))
	core.DocumentRecordMUS.Marshal(*doc, buf)
	return buf
}

func UnmarshalDocument(data []byte) (*core.DocumentRecord, error) {
	doc, _, err := core.DocumentRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

func MarshalSnapshotMeta(meta SnapshotMeta) []byte {
	micros := meta.SavedAt.UTC().UnixMicro()
	buf := make([]byte, varint.Int64.Size(micros)+chunkOrderMUS.Size(meta.ChunkOrder))
	n := varint.Int64.Marshal(micros, buf)
	chunkOrderMUS.Marshal(meta.ChunkOrder, buf[n:])
	return buf
}

func UnmarshalSnapshotMeta(data []byte) (SnapshotMeta, error) {
	micros, n, err := varint.Int64.Unmarshal(data)
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("%w: snapshot meta: %w", ErrSerializationFailed, err)
	}
	order, _, err := chunkOrderMUS.Unmarshal(data[n:])
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("%w: snapshot meta: %w", ErrSerializationFailed, err)
	}
	return SnapshotMeta{SavedAt: time.UnixMicro(micros).UTC(), ChunkOrder: order}, nil
}
