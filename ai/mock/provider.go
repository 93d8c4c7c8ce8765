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

package mock

import (
	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/core"
)

// MockProvider is a test double for ai.Provider.
type MockProvider struct {
	embedder   *MockEmbedder
	encoder    *MockCrossEncoder
	judge      *MockJudge
	classifier *MockIntentClassifier
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use the GetMock accessors to reach concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:   NewMockEmbedder(),
		encoder:    NewMockCrossEncoder(),
		judge:      NewMockJudge(),
		classifier: NewMockIntentClassifier(core.DomainGeneric),
	}
}

func (p *MockProvider) Embedder() ai.Embedder { return p.embedder }

func (p *MockProvider) CrossEncoder() ai.CrossEncoder { return p.encoder }

func (p *MockProvider) Judge() ai.Judge { return p.judge }

func (p *MockProvider) IntentClassifier() ai.IntentClassifier { return p.classifier }

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockCrossEncoder returns the underlying mock cross-encoder.
func (p *MockProvider) GetMockCrossEncoder() *MockCrossEncoder {
	return p.encoder
}

// GetMockJudge returns the underlying mock judge.
func (p *MockProvider) GetMockJudge() *MockJudge {
	return p.judge
}
