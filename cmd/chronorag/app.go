package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/chronorag"
	"github.com/poiesic/chronorag/ai"
	"github.com/poiesic/chronorag/core"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "chronorag",
		Usage: "Bi-temporal retrieval over versioned evidence",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./chronorag-data",
				EnvVars: []string{"CHRONORAG_DB"},
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Keep all state in memory",
			},
			&cli.StringFlag{
				Name:    "policy",
				Aliases: []string{"p"},
				Usage:   "Path to policy YAML file",
				EnvVars: []string{"CHRONORAG_POLICY"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: ai.DefaultConfig().EmbeddingModel,
			},
			&cli.BoolFlag{
				Name:  "judge",
				Usage: "Enable the LLM judge rerank stage",
			},
			&cli.BoolFlag{
				Name:  "heuristic",
				Usage: "Use only local heuristic capabilities",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest JSONL or text files and inline text",
				ArgsUsage: "[paths...]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "text",
						Aliases: []string{"t"},
						Usage:   "Inline text to ingest (repeatable)",
					},
					&cli.StringFlag{
						Name:  "provenance",
						Usage: "URI recorded for every ingested chunk",
					},
				},
			},
			{
				Name:   "retrieve",
				Usage:  "Run hybrid retrieval for a query",
				Action: retrieveCommand,
				Flags: append(queryFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of results",
						Value: 5,
					},
				),
			},
			{
				Name:   "route",
				Usage:  "Show the temporal routing decision for a query",
				Action: routeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Required: true,
					},
				},
			},
			{
				Name:   "plan",
				Usage:  "Show the hop plan for retrieval signals",
				Action: planCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "HARD or INTELLIGENT",
						Value: string(core.ModeIntelligent),
					},
					&cli.Float64Flag{
						Name:  "coverage",
						Usage: "Fraction of the requested results that were found",
					},
				},
			},
			{
				Name:   "evidence",
				Usage:  "Assemble the evidence bundle for a query",
				Action: evidenceCommand,
				Flags: append(queryFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of results (0 uses the domain default)",
					},
				),
			},
			{
				Name:   "purge",
				Usage:  "Delete all chunks, documents and cached freshness markers",
				Action: purgeCommand,
			},
			{
				Name:  "policy",
				Usage: "Inspect or change the retrieval policy",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the current policy",
						Action: policyShowCommand,
					},
					{
						Name:   "apply",
						Usage:  "Validate and apply a policy document",
						Action: policyApplyCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "file",
								Usage: "Policy YAML file (omit to only bump the version)",
							},
							&cli.StringFlag{
								Name:     "version",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "key",
								Usage: "Idempotency key",
							},
						},
					},
				},
			},
		},
	}
}

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "query",
			Aliases:  []string{"q"},
			Required: true,
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "HARD or INTELLIGENT (default: routed)",
		},
		&cli.StringFlag{
			Name:  "axis",
			Usage: "valid or transaction (default: routed)",
		},
		&cli.StringFlag{
			Name:  "from",
			Usage: "Window start date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:  "to",
			Usage: "Window end date (YYYY-MM-DD)",
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

// openApp builds the application from the global flags.
func openApp(c *cli.Context) (*chronorag.App, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithJudgeEnabled(c.Bool("judge")),
	)
	opts := []chronorag.Option{
		chronorag.WithAIConfig(cfg),
		chronorag.WithLogger(slog.Default()),
	}
	if c.Bool("in-memory") {
		opts = append(opts, chronorag.WithInMemory())
	}
	if c.Bool("heuristic") {
		opts = append(opts, chronorag.WithHeuristicOnly())
	}
	if path := c.String("policy"); path != "" {
		opts = append(opts, chronorag.WithPolicyFile(path))
	}
	return chronorag.Open(c.String("db"), opts...)
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// hintFromFlags returns a BETWEEN hint when either bound is set.
func hintFromFlags(c *cli.Context) *core.TimeHint {
	from, to := c.String("from"), c.String("to")
	if from == "" && to == "" {
		return nil
	}
	return &core.TimeHint{Operator: core.HintBetween, From: from, To: to}
}
