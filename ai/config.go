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
	"errors"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	EmbeddingModel string

	// RerankHost is the base URL for the chat model used as a cross-encoder.
	RerankHost string

	// RerankModel is the model identifier used to score query/passage pairs.
	RerankModel string

	// JudgeHost is the base URL for the judge model.
	JudgeHost string

	// JudgeModel is the model identifier for the LLM judge.
	JudgeModel string

	// JudgeEnabled switches the judge rerank stage on.
	// Default: false
	JudgeEnabled bool

	// JudgeRatePerSecond caps judge requests per second. Zero disables limiting.
	JudgeRatePerSecond float64

	// JudgeMaxTokens bounds the judge response length.
	JudgeMaxTokens int

	// JudgeTemperature is the sampling temperature for the judge.
	JudgeTemperature float64

	// CapabilityTimeout bounds every individual capability call.
	// Default: 10s
	CapabilityTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithRerankHost sets the cross-encoder service host URL.
func WithRerankHost(host string) ConfigOption {
	return func(c *Config) {
		c.RerankHost = host
	}
}

// WithJudgeHost sets the judge service host URL.
func WithJudgeHost(host string) ConfigOption {
	return func(c *Config) {
		c.JudgeHost = host
	}
}

// WithHost sets every service host to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.RerankHost = host
		c.JudgeHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithRerankModel sets the cross-encoder model identifier.
func WithRerankModel(model string) ConfigOption {
	return func(c *Config) {
		c.RerankModel = model
	}
}

// WithJudgeModel sets the judge model identifier.
func WithJudgeModel(model string) ConfigOption {
	return func(c *Config) {
		c.JudgeModel = model
	}
}

// WithJudgeEnabled switches the judge stage on or off.
func WithJudgeEnabled(enabled bool) ConfigOption {
	return func(c *Config) {
		c.JudgeEnabled = enabled
	}
}

// WithJudgeRate caps judge calls per second.
func WithJudgeRate(perSecond float64) ConfigOption {
	return func(c *Config) {
		c.JudgeRatePerSecond = perSecond
	}
}

// WithTimeout sets the per-call capability timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CapabilityTimeout = d
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default every service uses the same host and the judge is disabled.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:      defaultHost,
		RerankHost:         defaultHost,
		JudgeHost:          defaultHost,
		EmbeddingModel:     "embeddinggemma",
		RerankModel:        "qwen2.5:3b",
		JudgeModel:         "qwen2.5:3b",
		JudgeEnabled:       false,
		JudgeRatePerSecond: 2,
		JudgeMaxTokens:     512,
		JudgeTemperature:   0.1,
		CapabilityTimeout:  10 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("text-embedding-3-small"),
//	    WithJudgeEnabled(true),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.RerankHost = normalizeHost(c.RerankHost)
	c.JudgeHost = normalizeHost(c.JudgeHost)
	if c.CapabilityTimeout <= 0 {
		c.CapabilityTimeout = 10 * time.Second
	}
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.RerankHost == "" {
		return errors.New("ai config: RerankHost is required")
	}
	if c.RerankModel == "" {
		return errors.New("ai config: RerankModel is required")
	}
	if c.JudgeEnabled && (c.JudgeHost == "" || c.JudgeModel == "") {
		return errors.New("ai config: JudgeHost and JudgeModel are required when the judge is enabled")
	}
	if c.JudgeRatePerSecond < 0 {
		return errors.New("ai config: JudgeRatePerSecond cannot be negative")
	}
	return nil
}
