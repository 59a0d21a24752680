// Command upsert merges a CSV file into a table keyed by the given index
// columns. The table is created from the file when it does not exist.
//
// Flags:
//
//	--file         CSV file with a header row (required)
//	--table        target table (required)
//	--index        comma-separated key columns (required)
//	--engine       postgres or sqlite (default: postgres)
//	--sqlite-path  database file for the sqlite engine
//
// The postgres engine reads the database section of the regular
// configuration.
//
// Exit codes: 0 = success, 1 = error, 2 = usage error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres/bulk"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/sqlite"
	"github.com/heartmarshall/electricity-lca-backend/internal/app"
	"github.com/heartmarshall/electricity-lca-backend/internal/config"
	"github.com/heartmarshall/electricity-lca-backend/internal/upsert"
)

var errUsage = errors.New("usage error")

const (
	enginePostgres = "postgres"
	engineSQLite   = "sqlite"
)

type options struct {
	file       string
	table      string
	index      []string
	engine     string
	sqlitePath string
}

func parseArgs(args []string, output io.Writer) (options, error) {
	var (
		opts  options
		index string
	)

	fs := flag.NewFlagSet("upsert", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.file, "file", "", "CSV file to load")
	fs.StringVar(&opts.table, "table", "", "target table")
	fs.StringVar(&index, "index", "", "comma-separated key columns")
	fs.StringVar(&opts.engine, "engine", enginePostgres, "storage engine: postgres or sqlite")
	fs.StringVar(&opts.sqlitePath, "sqlite-path", "", "sqlite database file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return options{}, err
		}
		return options{}, fmt.Errorf("%w: %w", errUsage, err)
	}

	opts.index = config.ParseList(index)
	opts.engine = strings.ToLower(strings.TrimSpace(opts.engine))

	var missing []string
	if opts.file == "" {
		missing = append(missing, "--file")
	}
	if opts.table == "" {
		missing = append(missing, "--table")
	}
	if len(opts.index) == 0 {
		missing = append(missing, "--index")
	}
	if len(missing) > 0 {
		return options{}, fmt.Errorf("%w: missing %s", errUsage, strings.Join(missing, ", "))
	}

	switch opts.engine {
	case enginePostgres:
	case engineSQLite:
		if opts.sqlitePath == "" {
			return options{}, fmt.Errorf("%w: --sqlite-path is required for the sqlite engine", errUsage)
		}
	default:
		return options{}, fmt.Errorf("%w: unknown engine %q", errUsage, opts.engine)
	}

	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Printf("upsert: %v", err)
		return 2
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Printf("upsert: %v", err)
		return 1
	}

	logCfg := config.LogConfig{Level: "info", Format: "json"}
	var storeCfg *config.StoreConfig
	if opts.engine == enginePostgres {
		storeCfg, err = config.LoadStore()
		if err != nil {
			log.Printf("upsert: load config: %v", err)
			return 1
		}
		logCfg = storeCfg.Log
	}
	logger := app.NewLogger(logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frame, err := readFrame(opts.file, opts.index)
	if err != nil {
		logger.Error("read csv", slog.String("file", opts.file), slog.String("error", err.Error()))
		return 1
	}

	var eng upsert.Engine
	switch opts.engine {
	case engineSQLite:
		db, err := sqlite.Open(ctx, opts.sqlitePath)
		if err != nil {
			logger.Error("open sqlite", slog.String("path", opts.sqlitePath), slog.String("error", err.Error()))
			return 1
		}
		defer db.Close()
		eng = db
	default:
		pool, err := postgres.NewPool(ctx, storeCfg.Database)
		if err != nil {
			logger.Error("connect to database", slog.String("error", err.Error()))
			return 1
		}
		defer pool.Close()
		eng = bulk.New(pool)
	}

	logger.Info("starting upsert",
		slog.String("version", app.BuildVersion()),
		slog.String("engine", opts.engine),
		slog.String("table", opts.table),
		slog.Any("index", opts.index),
		slog.Int("rows", len(frame.Rows)),
	)

	res, err := upsert.Upsert(ctx, eng, frame, opts.table)
	if err != nil {
		logger.Error("upsert failed", slog.String("table", opts.table), slog.String("error", err.Error()))
		return 1
	}

	logger.Info("upsert completed",
		slog.String("table", res.Table),
		slog.Bool("created", res.Created),
		slog.Int64("rows", res.Rows),
	)
	return 0
}

func readFrame(path string, index []string) (upsert.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return upsert.Frame{}, err
	}
	defer f.Close()

	return upsert.ReadCSV(f, index)
}
