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

package openai

import (
	"log/slog"

	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/ai/heuristic"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// Intent classification is always served by the keyword classifier.
type Provider struct {
	config     *ai.Config
	embedder   *Embedder
	encoder    *CrossEncoder
	judge      *Judge
	classifier ai.IntentClassifier
	logger     *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	encoder, err := newCrossEncoder(config)
	if err != nil {
		return nil, err
	}
	judge, err := newJudge(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:     config,
		embedder:   embedder,
		encoder:    encoder,
		judge:      judge,
		classifier: heuristic.NewKeywordClassifier(),
		logger:     slog.Default().With("component", "openai-provider"),
	}, nil
}

func (p *Provider) Embedder() ai.Embedder { return p.embedder }

func (p *Provider) CrossEncoder() ai.CrossEncoder { return p.encoder }

func (p *Provider) Judge() ai.Judge { return p.judge }

func (p *Provider) IntentClassifier() ai.IntentClassifier { return p.classifier }

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
