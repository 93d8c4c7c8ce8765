// Package mock provides test double implementations of AI service interfaces.
//
// The doubles allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	emb := mock.NewMockEmbedder()
//	emb.ReadyFunc = func(ctx context.Context) error { return errors.New("down") }
//
//	// Check call counts
//	count := emb.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockCrossEncoder: Scores every passage 0.5
//   - MockJudge: Returns each passage's base score
//   - MockIntentClassifier: Returns the generic domain
package mock
