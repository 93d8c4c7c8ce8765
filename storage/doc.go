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


// Package storage defines the persistence interfaces used by chronorag.
//
// Two abstractions live here:
//
//   - SnapshotStore: saves and loads the complete versioned-store state
//   - Cache: a small TTL key/value cache used for freshness markers
//
// The storage/badger sub-package implements both on BadgerDB. MemoryCache
// in this package is the process-local Cache used when no database is open.
//
// # Serialization
//
// Records are encoded with mus-go binary serializers defined in core.
// MarshalChunk, MarshalDocument and MarshalSnapshotMeta wrap them with
// buffer sizing and error wrapping.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	snapshots := badger.NewSnapshotStore(backend)
//	cache := badger.NewCache(backend)
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
