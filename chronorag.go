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


package chronorag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/ai/heuristic"
	"github.com/poiesic/chronorag/ai/openai"
	"github.com/poiesic/chronorag/dhqc"
	"github.com/poiesic/chronorag/index"
	"github.com/poiesic/chronorag/ingestion"
	"github.com/poiesic/chronorag/policy"
	"github.com/poiesic/chronorag/pvdb"
	"github.com/poiesic/chronorag/retrieval"
	"github.com/poiesic/chronorag/router"
	"github.com/poiesic/chronorag/storage"
	"github.com/poiesic/chronorag/storage/badger"
)

// App owns every long-lived component. Build it once with Open and share it.
type App struct {
	backend    *badger.Backend
	cache      storage.Cache
	provider   ai.Provider
	index      *index.Index
	store      *pvdb.Store
	policies   *policy.Manager
	router     *router.Router
	pipeline   *retrieval.Pipeline
	controller *dhqc.Controller
	ingestion  *ingestion.Service
	logger     *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	inMemory      bool
	heuristicOnly bool
	aiConfig      *ai.Config
	policyFile    string
	registerer    prometheus.Registerer
	logger        *slog.Logger
}

// WithInMemory keeps all state in memory. The path passed to Open is ignored.
func WithInMemory() Option {
	return func(o *options) { o.inMemory = true }
}

// WithAIConfig sets the remote capability configuration.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) { o.aiConfig = cfg }
}

// WithPolicyFile loads the policy document from path. A missing file means
// the built-in policy.
func WithPolicyFile(path string) Option {
	return func(o *options) { o.policyFile = path }
}

// WithHeuristicOnly skips remote capabilities entirely.
func WithHeuristicOnly() Option {
	return func(o *options) { o.heuristicOnly = true }
}

// WithMetrics registers retrieval metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Open builds the application rooted at path.
func Open(path string, opts ...Option) (*App, error) {
	o := &options{aiConfig: ai.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger
	ctx := context.Background()

	policyCfg := policy.Default()
	if o.policyFile != "" {
		cfg, err := policy.Load(o.policyFile, logger)
		if err != nil {
			logger.Warn("policy file rejected; using built-in policy", "path", o.policyFile, "err", err)
		} else {
			policyCfg = cfg
		}
	}
	policies, err := policy.NewManager(policyCfg, policy.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackendWithLogger(path, o.inMemory, logger)
	if err != nil {
		return nil, fmt.Errorf("opening backend: %w", err)
	}

	app := &App{backend: backend, policies: policies, logger: logger.With("component", "app")}
	app.cache = selectCache(ctx, badger.NewCache(backend), logger)

	caps, err := app.selectCapabilities(ctx, o, policyCfg.Judge)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.index = index.New(caps.embedder, index.WithLogger(logger))
	app.store = pvdb.Open(ctx, app.index,
		pvdb.WithLogger(logger),
		pvdb.WithSnapshotStore(badger.NewSnapshotStore(backend)),
	)
	app.router = router.New(policies, caps.classifier, router.WithLogger(logger))
	app.controller = dhqc.New(policies)

	pipelineOpts := []retrieval.Option{
		retrieval.WithLogger(logger),
		retrieval.WithCrossEncoder(caps.encoder),
		retrieval.WithJudge(caps.judge),
		retrieval.WithIntentClassifier(caps.classifier),
	}
	if o.registerer != nil {
		pipelineOpts = append(pipelineOpts, retrieval.WithMonitor(retrieval.NewPrometheusMonitor(o.registerer)))
	}
	app.pipeline, err = retrieval.New(app.store, policies, pipelineOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.ingestion, err = ingestion.New(app.store, policies,
		ingestion.WithLogger(logger),
		ingestion.WithCache(app.cache),
		ingestion.WithEncoder(app.index),
	)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.logger.Info("chronorag ready",
		"in_memory", o.inMemory,
		"embedder", caps.embedder.Name(),
		"chunks", app.store.Len(),
		"policy_version", policies.Current().Version(),
	)
	return app, nil
}

type capabilities struct {
	embedder   ai.Embedder
	encoder    ai.CrossEncoder
	judge      ai.Judge
	classifier ai.IntentClassifier
}

// selectCapabilities checks the remote provider first and falls back to the
// heuristic one per capability.
func (a *App) selectCapabilities(ctx context.Context, o *options, judge policy.JudgeSettings) (capabilities, error) {
	cfg := *o.aiConfig
	if judge.Enabled {
		cfg.JudgeEnabled = true
		if judge.RatePerSecond > 0 {
			cfg.JudgeRatePerSecond = judge.RatePerSecond
		}
	}
	cfg.Normalize()

	local := heuristic.NewProvider(cfg.JudgeEnabled)
	var remote ai.Provider
	if !o.heuristicOnly {
		p, err := openai.NewProvider(&cfg)
		if err != nil {
			a.logger.Warn("remote capabilities unavailable", "err", err)
		} else {
			remote = p
			a.provider = p
		}
	}

	readyCtx, cancel := context.WithTimeout(ctx, cfg.CapabilityTimeout)
	defer cancel()

	var caps capabilities
	var err error
	if remote != nil {
		caps.embedder, err = ai.FirstReady(readyCtx, a.logger, remote.Embedder(), local.Embedder())
		if err != nil {
			return caps, err
		}
		caps.encoder, err = ai.FirstReady(readyCtx, a.logger, remote.CrossEncoder(), local.CrossEncoder())
		if err != nil {
			return caps, err
		}
		caps.judge, err = ai.FirstReady(readyCtx, a.logger, remote.Judge(), local.Judge())
		if err != nil {
			return caps, err
		}
	} else {
		caps.embedder = local.Embedder()
		caps.encoder = local.CrossEncoder()
		caps.judge = local.Judge()
	}
	caps.classifier = local.IntentClassifier()
	return caps, nil
}

// selectCache falls back to a process-local cache when the persistent one
// fails a write/read check.
func selectCache(ctx context.Context, cache storage.Cache, logger *slog.Logger) storage.Cache {
	const checkKey = "chronorag:ready"
	err := cache.Set(ctx, checkKey, []byte("1"), 0)
	if err == nil {
		_, err = cache.Get(ctx, checkKey)
	}
	if err != nil {
		logger.Warn("persistent cache unavailable; using memory cache", "err", err)
		return storage.NewMemoryCache()
	}
	return cache
}

// Close flushes pending state and releases resources.
func (a *App) Close() error {
	var errs []error
	if a.ingestion != nil {
		a.ingestion.Release()
	}
	if a.store != nil {
		if err := a.store.Flush(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) Store() *pvdb.Store { return a.store }

func (a *App) Cache() storage.Cache { return a.cache }

func (a *App) Policies() *policy.Manager { return a.policies }

func (a *App) Router() *router.Router { return a.router }

func (a *App) Pipeline() *retrieval.Pipeline { return a.pipeline }

func (a *App) Controller() *dhqc.Controller { return a.controller }

func (a *App) Ingestion() *ingestion.Service { return a.ingestion }
