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

// Package pvdb is the versioned document and chunk store.
//
// Chunks are append-only. A new chunk that shares an external id with an
// earlier one closes the predecessor's transaction window (lineage closure);
// nothing else about a stored chunk ever changes. The store owns the
// embedding index registrations for its chunks and persists full snapshots
// through a storage.SnapshotStore, writing only when something changed.
//
// The store is safe for concurrent use: one writer or many readers.
package pvdb
