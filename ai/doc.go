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


// Package ai provides abstractions for the model-backed capabilities used by
// chronorag.
//
// Four capabilities are defined, each embedding Capability so it can report
// its name and readiness:
//
//   - Embedder: Generates vector embeddings from text
//   - CrossEncoder: Scores query/passage relevance in [0,1]
//   - Judge: Rescores candidate passages using temporal and authority features
//   - IntentClassifier: Maps a query to a coarse domain and target
//
// Provider aggregates one of each for convenient initialization.
//
// # Implementation Packages
//
//   - ai/openai: langchaingo clients for OpenAI-compatible servers
//   - ai/heuristic: deterministic fallbacks that never need a network
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Selecting an implementation
//
// Callers list candidates in preference order and let FirstReady check them.
// The first candidate whose Ready call succeeds is used for the lifetime of
// the process:
//
//	emb, err := ai.FirstReady[ai.Embedder](ctx, logger,
//	    remote.Embedder(),
//	    heuristic.NewHashEmbedder(16),
//	)
//
// Public constructors in ai/openai and ai/heuristic return interface types.
// Mock constructors return concrete types so tests can inject behavior and
// inspect call counts.
package ai
