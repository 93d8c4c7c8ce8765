package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/chronorag"
	"github.com/poiesic/chronorag/core"
	"github.com/poiesic/chronorag/ingestion"
	"github.com/poiesic/chronorag/policy"
	"github.com/poiesic/chronorag/retrieval"
	"github.com/poiesic/chronorag/router"
)

// withApp opens the application for the duration of fn.
func withApp(c *cli.Context, fn func(ctx context.Context, app *chronorag.App) error) error {
	app, err := openApp(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer app.Close()
	return fn(c.Context, app)
}

func ingestCommand(c *cli.Context) error {
	req := ingestion.Request{
		Paths:      c.Args().Slice(),
		Texts:      c.StringSlice("text"),
		Provenance: c.String("provenance"),
	}
	if len(req.Paths) == 0 && len(req.Texts) == 0 {
		return fmt.Errorf("nothing to ingest: pass file paths or --text")
	}
	return withApp(c, func(ctx context.Context, app *chronorag.App) error {
		ids, err := app.Ingestion().Ingest(ctx, req)
		if err != nil {
			return err
		}
		if ids == nil {
			ids = []string{}
		}
		return writeJSON(c, map[string]any{"ingested": len(ids), "chunk_ids": ids})
	})
}

func retrieveCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, app *chronorag.App) error {
		query := c.String("query")
		hint := hintFromFlags(c)
		decision := app.Router().Route(ctx, query, hint, nil)

		req := retrieval.Request{
			Query:  query,
			Window: decision.Window,
			Mode:   decision.Mode,
			TopK:   c.Int("top-k"),
			Axis:   decision.Axis,
			Domain: decision.Domain,
		}
		if m := c.String("mode"); m != "" {
			req.Mode = core.ParseMode(m)
		}
		if a := c.String("axis"); a != "" {
			req.Axis = core.Axis(strings.ToLower(a))
		}

		resp, err := app.Pipeline().Retrieve(ctx, req)
		if err != nil {
			return err
		}
		return writeJSON(c, resp)
	})
}

func routeCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, app *chronorag.App) error {
		decision := app.Router().Route(ctx, c.String("query"), nil, nil)
		return writeJSON(c, struct {
			core.RouteDecision
			Observation router.Observation `json:"observation"`
		}{decision, app.Router().LastObservation()})
	})
}

func planCommand(c *cli.Context) error {
	return withApp(c, func(_ context.Context, app *chronorag.App) error {
		plan := app.Controller().Plan(core.ParseMode(c.String("mode")), core.Signals{Coverage: c.Float64("coverage")})
		return writeJSON(c, plan)
	})
}

func evidenceCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, app *chronorag.App) error {
		req := chronorag.EvidenceRequest{
			Query: c.String("query"),
			Hint:  hintFromFlags(c),
			TopK:  c.Int("top-k"),
		}
		if m := c.String("mode"); m != "" {
			req.Mode = core.ParseMode(m)
		}
		if a := c.String("axis"); a != "" {
			req.Axis = core.Axis(strings.ToLower(a))
		}
		ev, err := app.Evidence(ctx, req)
		if err != nil {
			return err
		}
		return writeJSON(c, ev)
	})
}

func purgeCommand(c *cli.Context) error {
	return withApp(c, func(ctx context.Context, app *chronorag.App) error {
		status, err := app.Purge(ctx)
		if err != nil {
			return err
		}
		return writeJSON(c, status)
	})
}

func policyShowCommand(c *cli.Context) error {
	return withApp(c, func(_ context.Context, app *chronorag.App) error {
		snap := app.Policies().Current()
		return writeJSON(c, map[string]any{
			"version":    snap.Version(),
			"applied_at": snap.AppliedAt(),
			"policy":     snap.Config(),
		})
	})
}

func policyApplyCommand(c *cli.Context) error {
	change := policy.Change{
		Version:        c.String("version"),
		IdempotencyKey: c.String("key"),
	}
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading policy file: %w", err)
		}
		cfg, err := policy.Parse(data, nil)
		if err != nil {
			return err
		}
		change.Config = cfg
	}
	return withApp(c, func(_ context.Context, app *chronorag.App) error {
		res, err := app.Policies().Apply(change)
		if err != nil {
			return err
		}
		return writeJSON(c, res)
	})
}
