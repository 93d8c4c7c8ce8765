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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a ChunkRecord failed validation.
	ErrInvalidChunk = errors.New("invalid chunk record")

	// ErrInvalidDocument indicates a DocumentRecord failed validation.
	ErrInvalidDocument = errors.New("invalid document record")

	// ErrEmptyText indicates the chunk text is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyDocID indicates a missing document id.
	ErrEmptyDocID = errors.New("document id cannot be empty")

	// ErrEmptyChunkID indicates a missing chunk id.
	ErrEmptyChunkID = errors.New("chunk id cannot be empty")

	// ErrAuthorityOutOfRange indicates authority outside [0,1].
	ErrAuthorityOutOfRange = errors.New("authority must be within [0,1]")

	// ErrInvertedWindow indicates a window whose end precedes its start.
	ErrInvertedWindow = errors.New("window end precedes start")
)
