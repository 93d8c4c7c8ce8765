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


package policy

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultIdempotencyCapacity bounds how many applied keys are remembered.
const DefaultIdempotencyCapacity = 1024

// Change is a request to replace the current policy.
// A nil Config bumps the version and keeps the current document.
type Change struct {
	Version        string
	IdempotencyKey string
	Config         *Config
}

// ApplyResult reports the outcome of Apply.
type ApplyResult struct {
	Version  string `json:"version"`
	Previous string `json:"previous"`
	Accepted bool   `json:"accepted"`
}

// Manager owns the current policy snapshot.
type Manager struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	keys    *keySet
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger.With("component", "policy")
	}
}

// WithIdempotencyCapacity overrides DefaultIdempotencyCapacity.
func WithIdempotencyCapacity(n int) Option {
	return func(m *Manager) {
		m.keys = newKeySet(n)
	}
}

// NewManager validates cfg and makes it the current snapshot.
// A nil cfg uses Default.
func NewManager(cfg *Config, opts ...Option) (*Manager, error) {
	m := &Manager{
		keys:   newKeySet(DefaultIdempotencyCapacity),
		logger: slog.Default().With("component", "policy"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if cfg == nil {
		cfg = Default()
	}
	cfg = cfg.Clone()
	cfg.Normalize(m.logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m.current.Store(newSnapshot(cfg, cfg.PolicyVersion, m.now()))
	return m, nil
}

// Current returns the active snapshot. It is safe for concurrent use.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Apply validates and installs a change.
func (m *Manager) Apply(change Change) (ApplyResult, error) {
	version := strings.TrimSpace(change.Version)
	if version == "" {
		return ApplyResult{}, ErrMissingVersion
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.current.Load()
	rejected := ApplyResult{Version: cur.Version(), Previous: cur.Version()}
	key := change.IdempotencyKey
	if key != "" && version == cur.Version() {
		m.logger.Info("policy change rejected", "reason", "same_version", "version", version)
		return rejected, nil
	}
	if key != "" && m.keys.Contains(key) {
		m.logger.Info("policy change rejected", "reason", "duplicate_key", "key", key)
		return rejected, nil
	}

	cfg := cur.Config()
	if change.Config != nil {
		cfg = change.Config.Clone()
		cfg.Normalize(m.logger)
		if err := cfg.Validate(); err != nil {
			m.logger.Warn("policy change invalid", "version", version, "err", err)
			return rejected, fmt.Errorf("applying policy %s: %w", version, err)
		}
	}

	m.current.Store(newSnapshot(cfg, version, m.now()))
	if key != "" {
		m.keys.Add(key)
	}
	m.logger.Info("policy applied", "version", version, "previous", cur.Version())
	return ApplyResult{Version: version, Previous: cur.Version(), Accepted: true}, nil
}

// ResetIdempotency forgets every applied key.
func (m *Manager) ResetIdempotency() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys.Reset()
}
