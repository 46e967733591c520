package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"dealquery/internal/cache"
	"dealquery/internal/catalog"
	"dealquery/internal/config"
	"dealquery/internal/domain"
	"dealquery/internal/embed"
	"dealquery/internal/pipeline"
	"dealquery/internal/planner"
	"dealquery/internal/results"
	"dealquery/internal/runner"
	"dealquery/internal/selector"
	"dealquery/internal/service"
)

// app holds the wired pipeline for one CLI invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	catalog  *catalog.Catalog
	selector *selector.Selector
	planner  *planner.Planner
	decomp   *pipeline.Decomposer
	service  *service.QueryService
	closers  []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp loads configuration, connects the schema source, builds the
// catalog snapshot, and wires every pipeline stage.
func buildApp(ctx context.Context, envFile string) (*app, error) {
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	hints, err := catalog.LoadHints(cfg.HintsPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog hints: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	var source domain.SchemaSource
	var querier runner.Querier
	switch {
	case cfg.DatabaseURL != "":
		pg, err := catalog.NewPostgresSource(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		source = pg
		querier = &runner.PgxQuerier{Pool: pg.Pool()}
	case cfg.SQLitePath != "":
		db, err := sql.Open("sqlite3", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		source = catalog.NewSQLiteSource(db)
		querier = &runner.DBQuerier{DB: db}
	default:
		return nil, domain.ErrValidation("no store configured: set DATABASE_URL or SQLITE_PATH")
	}

	embedder := &embed.Local{}
	cat := catalog.New(source, embedder, hints, logger, catalog.Options{EmbedRateLimit: cfg.EmbedRateLimit})
	if err := cat.Rebuild(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("build schema catalog: %w", err)
	}

	sel := selector.New(cat, embedder, cfg.SimilarityThreshold, logger)
	pl := planner.New(cat)
	dec := pipeline.NewDecomposer(cfg.ComplexityThreshold)
	run := runner.NewSQLRunner(querier, logger)
	ex := pipeline.NewExecutor(run, sel, cfg.StepTimeout, cfg.PlanTimeout, cfg.TopK, logger)
	proc := results.NewProcessor(cache.NewMemory(), logger, results.Options{
		LargeResultThreshold: cfg.LargeResultThreshold,
		CacheTTL:             cfg.CacheTTL,
	})

	a.catalog = cat
	a.selector = sel
	a.planner = pl
	a.decomp = dec
	a.service = service.NewQueryService(sel, pl, dec, ex, proc, cfg.TopK, logger)
	return a, nil
}
