// Command ingest fetches actual generation per production type from the
// ENTSO-E transparency platform for every reference region and stores it
// in the ElectricityGeneration table.
//
// Flags:
//
//	-s, --start   first day to load, YYYYMMDD or YYYY-MM-DD (required)
//	-e, --end     day after the last day to load (required)
//	--sleep       minimum seconds between region requests
//	--types       comma-separated generation type filter
//	--regions     comma-separated region codes (default: all)
//	--version     print version and exit
//
// Dates are calendar days in pipeline.timezone. The process reads .env and
// then the regular configuration.
//
// Exit codes: 0 = success, 1 = error, 2 = usage error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres/generation"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres/reference"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/provider/entsoe"
	"github.com/heartmarshall/electricity-lca-backend/internal/app"
	"github.com/heartmarshall/electricity-lca-backend/internal/app/ingest"
	"github.com/heartmarshall/electricity-lca-backend/internal/config"
)

// Compile-time interface assertions.
var (
	_ ingest.ReferenceLoader  = (*reference.Repo)(nil)
	_ ingest.GenerationWriter = (*generation.Repo)(nil)
	_ ingest.SeriesFetcher    = (*entsoe.Provider)(nil)
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Printf("ingest: %v", err)
		return 2
	}
	if opts.version {
		fmt.Println(app.BuildVersion())
		return 0
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Printf("ingest: %v", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("ingest: load config: %v", err)
		return 1
	}

	logger := app.NewLogger(cfg.Log)

	pcfg := ingest.Config{
		Start:           opts.start.in(cfg.Pipeline.Location),
		End:             opts.end.in(cfg.Pipeline.Location),
		MinInterval:     cfg.Pipeline.MinInterval,
		GenerationTypes: cfg.Pipeline.GenerationTypes,
		Regions:         opts.regions,
	}
	if opts.sleepOK {
		pcfg.MinInterval = opts.sleep
	}
	if opts.types != nil {
		pcfg.GenerationTypes = opts.types
	}

	logger.Info("starting ingest",
		slog.String("version", app.BuildVersion()),
		slog.String("database", cfg.Database.String()),
		slog.String("start", opts.start.String()),
		slog.String("end", opts.end.String()),
		slog.String("timezone", cfg.Pipeline.Location.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Pipeline.RunTimeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		return 1
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	refs := reference.New(pool, cfg.Pipeline.MappingSource)
	writer := generation.New(pool, txm)
	fetcher := entsoe.NewProvider(cfg.Entsoe, logger)

	pipeline := ingest.NewPipeline(logger, refs, fetcher, writer, pcfg)
	summary, err := pipeline.Run(ctx)
	if err != nil {
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		return 1
	}

	if summary.HasErrors() {
		logger.Warn("pipeline completed with errors", slog.Int("regions_failed", summary.RegionsFailed))
		return 1
	}

	logger.Info("pipeline completed successfully")
	return 0
}
