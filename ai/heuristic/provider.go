package heuristic

import "github.com/poiesic/chronorag/ai"

// Provider bundles the heuristic capabilities.
type Provider struct {
	embedder   ai.Embedder
	encoder    ai.CrossEncoder
	judge      ai.Judge
	classifier ai.IntentClassifier
}

// NewProvider returns heuristic capabilities. The judge follows judgeEnabled.
func NewProvider(judgeEnabled bool) ai.Provider {
	return &Provider{
		embedder:   NewHashEmbedder(DefaultDimension),
		encoder:    NewOverlapCrossEncoder(),
		judge:      NewLightJudge(judgeEnabled),
		classifier: NewKeywordClassifier(),
	}
}

func (p *Provider) Embedder() ai.Embedder                 { return p.embedder }
func (p *Provider) CrossEncoder() ai.CrossEncoder         { return p.encoder }
func (p *Provider) Judge() ai.Judge                       { return p.judge }
func (p *Provider) IntentClassifier() ai.IntentClassifier { return p.classifier }
func (p *Provider) Close() error                          { return nil }
