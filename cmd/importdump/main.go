package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/application/usecase"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/infrastructure/adapter"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/infrastructure/config"
	"github.com/Ddimitrako/ratehawk-hotels-backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var (
		cachePath = flag.String("cache", cfg.Cache.Path, "SQLite cache path")
		language  = flag.String("language", cfg.API.DefaultLanguage, "Language code for cache keys")
		limit     = flag.Int("limit", 0, "Import only the first N hotels (0 = all)")
		batchSize = flag.Int("batch-size", cfg.Cache.BatchSize, "Records per write transaction")
		logLevel  = flag.String("log-level", cfg.Log.Level, "Log level")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: importdump [flags] <dump.json.zst>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	dumpPath := flag.Arg(0)

	applicationLogger := logger.SetupLogger(*logLevel)

	store, err := adapter.NewSQLiteStoreAdapter(*cachePath, applicationLogger)
	if err != nil {
		applicationLogger.Error("Failed to open cache store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	importer := usecase.NewImportDumpUseCase(store, applicationLogger)
	report, err := importer.Execute(ctx, usecase.ImportOptions{
		DumpPath:  dumpPath,
		Language:  *language,
		Limit:     *limit,
		BatchSize: *batchSize,
	})
	if err != nil {
		applicationLogger.Error("Import failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Done. Imported %d hotels (%d skipped) into %s in %s\n",
		report.Imported, report.Skipped, *cachePath, report.Duration)
}
