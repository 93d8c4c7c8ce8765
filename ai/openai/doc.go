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

// Package openai provides capability implementations using OpenAI-compatible APIs.
//
// The embedder, cross-encoder and judge talk to OpenAI or compatible servers
// (Ollama, LocalAI, vLLM) through langchaingo. Intent classification has no
// model-backed implementation and is served by the keyword classifier from
// ai/heuristic.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithJudgeEnabled(true),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	scores, err := provider.CrossEncoder().Rerank(ctx, "GDP of France in 1870", passages)
package openai
