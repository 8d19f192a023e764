/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flamego/flamego"
	"github.com/urfave/cli/v3"

	"github.com/evesallesleite-cell/lab-site-sub000/analyte"
	"github.com/evesallesleite-cell/lab-site-sub000/completion"
	"github.com/evesallesleite-cell/lab-site-sub000/db"
	"github.com/evesallesleite-cell/lab-site-sub000/metabase"
	"github.com/evesallesleite-cell/lab-site-sub000/routes"
	"github.com/evesallesleite-cell/lab-site-sub000/supabase"
)

const shutdownTimeout = 10 * time.Second

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the analyte series web server",
	Flags:   startFlags(),
	Action:  start,
}

func startFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "port",
			Value: "8080",
			Usage: "the web server port",
		},
		&cli.StringFlag{
			Name:    "database-url",
			Sources: cli.EnvVars("DATABASE_URL"),
			Usage:   "PostgreSQL connection string for the fallback tables",
		},
		&cli.BoolFlag{
			Name:    "sync-schema",
			Sources: cli.EnvVars("SYNC_SCHEMA"),
			Usage:   "apply embedded migrations on start",
		},
		&cli.StringFlag{
			Name:    "supabase-url",
			Sources: cli.EnvVars("SUPABASE_URL"),
			Usage:   "Supabase project URL, used when --database-url is not set",
		},
		&cli.StringFlag{
			Name:    "supabase-key",
			Sources: cli.EnvVars("SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_ANON_KEY"),
			Usage:   "Supabase API key",
		},
		&cli.StringFlag{
			Name:    "metabase-url",
			Sources: cli.EnvVars("METABASE_URL"),
			Usage:   "Metabase base URL for card queries",
		},
		&cli.StringFlag{
			Name:    "metabase-username",
			Sources: cli.EnvVars("METABASE_USERNAME"),
			Usage:   "Metabase login",
		},
		&cli.StringFlag{
			Name:    "metabase-password",
			Sources: cli.EnvVars("METABASE_PASSWORD"),
			Usage:   "Metabase password",
		},
		&cli.FloatFlag{
			Name:    "metabase-rate",
			Sources: cli.EnvVars("METABASE_RATE"),
			Value:   metabase.DefaultRate,
			Usage:   "maximum Metabase requests per second",
		},
		&cli.StringFlag{
			Name:    "openai-api-key",
			Sources: cli.EnvVars("OPENAI_API_KEY"),
			Usage:   "API key for the chat completion service; summaries are disabled without it",
		},
		&cli.StringFlag{
			Name:    "openai-base-url",
			Sources: cli.EnvVars("OPENAI_BASE_URL"),
			Usage:   "OpenAI-compatible endpoint (e.g., http://localhost:11434/v1 for Ollama)",
		},
		&cli.StringFlag{
			Name:    "openai-model",
			Sources: cli.EnvVars("OPENAI_MODEL"),
			Value:   completion.DefaultModel,
			Usage:   "chat completion model",
		},
		&cli.IntFlag{
			Name:    "openai-max-tokens",
			Sources: cli.EnvVars("OPENAI_MAX_TOKENS"),
			Value:   completion.DefaultMaxTokens,
			Usage:   "maximum tokens per summary",
		},
		&cli.FloatFlag{
			Name:    "openai-temperature",
			Sources: cli.EnvVars("OPENAI_TEMPERATURE"),
			Value:   completion.DefaultTemperature,
			Usage:   "sampling temperature for summaries",
		},
		&cli.DurationFlag{
			Name:    "openai-timeout",
			Sources: cli.EnvVars("OPENAI_TIMEOUT"),
			Value:   completion.DefaultTimeout,
			Usage:   "timeout of a single completion call",
		},
		&cli.StringFlag{
			Name:    "pipeline-config",
			Sources: cli.EnvVars("PIPELINE_CONFIG"),
			Usage:   "YAML file overriding fallback tables and column names",
		},
		&cli.StringSliceFlag{
			Name:    "fallback-table",
			Sources: cli.EnvVars("FALLBACK_TABLES"),
			Usage:   "fallback table, in priority order (repeatable)",
		},
		&cli.IntFlag{
			Name:    "row-cap",
			Sources: cli.EnvVars("ROW_CAP"),
			Usage:   "maximum rows read from any source",
		},
		&cli.BoolFlag{
			Name:    "strict-dates",
			Sources: cli.EnvVars("STRICT_DATES"),
			Usage:   "reject dates whose day and month order is ambiguous",
		},
		&cli.BoolFlag{
			Name:    "parallel-fetch",
			Sources: cli.EnvVars("PARALLEL_FETCH"),
			Usage:   "query all fallback tables concurrently",
		},
		&cli.DurationFlag{
			Name:    "request-timeout",
			Sources: cli.EnvVars("REQUEST_TIMEOUT"),
			Value:   60 * time.Second,
			Usage:   "timeout of a whole series request",
		},
	}
}

func start(ctx context.Context, cmd *cli.Command) error {
	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}

	deps, cleanup, err := dependencies(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := routes.Options{RequestTimeout: cmd.Duration("request-timeout")}
	f := newServer(analyte.New(cfg, deps), opts)

	port := cmd.String("port")

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", port),
		Handler:      f,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: opts.RequestTimeout + 10*time.Second,
		ErrorLog:     requestStdLogger,
	}

	return serve(ctx, srv)
}

// pipelineConfig loads the optional YAML file and applies flag overrides.
func pipelineConfig(cmd *cli.Command) (analyte.Config, error) {
	cfg := analyte.DefaultConfig()

	if path := cmd.String("pipeline-config"); path != "" {
		loaded, err := analyte.LoadConfig(path)
		if err != nil {
			return cfg, err
		}

		cfg = loaded
	}

	if tables := cmd.StringSlice("fallback-table"); len(tables) > 0 {
		cfg.FallbackTables = tables
	}

	if cmd.IsSet("row-cap") {
		cfg.RowCap = cmd.Int("row-cap")
	}

	if cmd.IsSet("strict-dates") {
		cfg.StrictDates = cmd.Bool("strict-dates")
	}

	if cmd.IsSet("parallel-fetch") {
		cfg.ParallelFetch = cmd.Bool("parallel-fetch")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// dependencies connects every configured collaborator. Missing optional
// collaborators are logged and left nil.
func dependencies(ctx context.Context, cmd *cli.Command) (analyte.Dependencies, func(), error) {
	var deps analyte.Dependencies

	cleanup := func() {}

	switch {
	case cmd.String("database-url") != "":
		appLogger.Info("Connecting to database...")

		store, err := db.Open(ctx, cmd.String("database-url"))
		if err != nil {
			return deps, cleanup, fmt.Errorf("failed to initialize database: %w", err)
		}

		cleanup = store.Close

		if cmd.Bool("sync-schema") {
			appLogger.Info("Syncing database schema...")

			if err := store.SyncSchema(ctx); err != nil {
				store.Close()
				return deps, func() {}, fmt.Errorf("failed to sync schema: %w", err)
			}
		}

		deps.Store = store
	case cmd.String("supabase-url") != "":
		store, err := supabase.New(supabase.Config{
			URL:    cmd.String("supabase-url"),
			APIKey: cmd.String("supabase-key"),
		})
		if err != nil {
			return deps, cleanup, fmt.Errorf("failed to configure supabase: %w", err)
		}

		deps.Store = store
	default:
		appLogger.Warn("Fallback tables disabled", "error", errNoRowSource)
	}

	if url := cmd.String("metabase-url"); url != "" {
		cards, err := metabase.New(metabase.Config{
			URL:               url,
			Username:          cmd.String("metabase-username"),
			Password:          cmd.String("metabase-password"),
			RequestsPerSecond: cmd.Float("metabase-rate"),
		})
		if err != nil {
			cleanup()
			return deps, func() {}, fmt.Errorf("failed to configure metabase: %w", err)
		}

		deps.Cards = cards
	} else {
		appLogger.Warn("Metabase not configured, card queries disabled")
	}

	if key := cmd.String("openai-api-key"); key != "" {
		temperature := float32(cmd.Float("openai-temperature"))

		completer, err := completion.New(completion.Config{
			APIKey:      key,
			BaseURL:     cmd.String("openai-base-url"),
			Model:       cmd.String("openai-model"),
			MaxTokens:   cmd.Int("openai-max-tokens"),
			Temperature: &temperature,
			Timeout:     cmd.Duration("openai-timeout"),
		})
		if err != nil {
			cleanup()
			return deps, func() {}, fmt.Errorf("failed to configure completion service: %w", err)
		}

		deps.Completer = completer
	} else {
		appLogger.Warn("Completion service not configured, summaries disabled")
	}

	return deps, cleanup, nil
}

func newServer(runner routes.SeriesRunner, opts routes.Options) *flamego.Flame {
	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(routes.RequestLogger)
	f.Use(routes.NoCacheHeaders())

	f.Map(opts)
	f.MapTo(runner, (*routes.SeriesRunner)(nil))

	f.Get("/healthz", routes.Healthz)

	f.Group("/api/analyte-series", func() {
		f.Post("", routes.AnalyteSeries)
		f.Get("/chart", routes.AnalyteSeriesChart)
	})

	f.NotFound(routes.NotFound)

	return f
}

func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)

	go func() {
		appLogger.Info("Starting web server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		appLogger.Info("Shutting down web server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}
