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


package ai

import (
	"context"

	"github.com/poiesic/chronorag/core"
)

// Capability is implemented by every pluggable model-backed service.
// Ready reports whether the service can currently serve requests.
type Capability interface {
	// Name identifies the implementation in logs and metrics.
	Name() string

	// Ready returns nil when the capability is usable.
	Ready(ctx context.Context) error
}

// Embedder provides text embedding capabilities.
// Implementations must return the same vector for the same text.
type Embedder interface {
	Capability

	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CrossEncoder scores query/passage pairs.
type CrossEncoder interface {
	Capability

	// Rerank returns a score in [0,1] for each passage, identified by its
	// index in passages. Order of the returned slice is unspecified.
	Rerank(ctx context.Context, query string, passages []string) ([]RerankScore, error)
}

// Judge is an optional LLM-backed reranker gated by configuration.
type Judge interface {
	Capability

	// Enabled reports whether the judge is switched on by configuration.
	Enabled() bool

	// Judge returns a score in [0,1] keyed by passage id. Passages the judge
	// did not score are absent from the map.
	Judge(ctx context.Context, req JudgeRequest) (map[string]float64, error)
}

// IntentClassifier maps a query onto a retrieval domain.
type IntentClassifier interface {
	Capability

	// ClassifyIntent returns the domain and target for query.
	ClassifyIntent(ctx context.Context, query string) (core.Intent, error)
}

// Provider aggregates the capabilities a chronorag instance consumes.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// CrossEncoder returns the passage reranker.
	CrossEncoder() CrossEncoder

	// Judge returns the LLM judge.
	Judge() Judge

	// IntentClassifier returns the query intent classifier.
	IntentClassifier() IntentClassifier

	// Close releases resources held by the provider and its services.
	Close() error
}
