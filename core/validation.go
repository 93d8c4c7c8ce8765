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


package core

import (
	"fmt"
	"math"
	"strings"
)

// ValidateChunkRecord validates a ChunkRecord according to domain rules.
//
// Validation rules:
//   - ChunkID, DocID and Text must not be empty
//   - Authority must be within [0,1]
//   - ValidWindow and TxWindow (when present) must not be inverted
//
// NOT validated:
//   - Vector (empty when the embedding capability was unavailable)
func ValidateChunkRecord(chunk *ChunkRecord) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ChunkID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkID)
	}

	if chunk.DocID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyDocID)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if !IsValidAuthority(chunk.Authority) {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrAuthorityOutOfRange)
	}

	if err := ValidateWindow(chunk.ValidWindow); err != nil {
		return fmt.Errorf("%w: valid window: %w", ErrInvalidChunk, err)
	}

	if chunk.TxWindow != nil {
		if err := ValidateWindow(*chunk.TxWindow); err != nil {
			return fmt.Errorf("%w: tx window: %w", ErrInvalidChunk, err)
		}
	}

	return nil
}

// ValidateDocumentRecord validates a DocumentRecord.
func ValidateDocumentRecord(doc *DocumentRecord) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.DocID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocID)
	}
	return nil
}

// ValidateWindow rejects windows whose end precedes their start.
func ValidateWindow(w TimeWindow) error {
	if w.End.Before(w.Start) {
		return ErrInvertedWindow
	}
	return nil
}

// IsValidAuthority reports whether a is a usable authority score.
func IsValidAuthority(a float64) bool {
	return a >= 0 && a <= 1
}

// ClampUnit clamps v into [0,1]. NaN clamps to 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
