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
		cachePath  = flag.String("cache", cfg.Cache.Path, "SQLite cache path")
		language   = flag.String("language", cfg.API.DefaultLanguage, "Dump language")
		outputPath = flag.String("out", cfg.Cache.DumpPath, "Where to save the downloaded dump")
		sandbox    = flag.Bool("sandbox", cfg.API.Sandbox, "Use the sandbox host")
		limit      = flag.Int("limit", 0, "Import only the first N hotels (0 = all)")
		logLevel   = flag.String("log-level", cfg.Log.Level, "Log level")
	)
	flag.Parse()

	applicationLogger := logger.SetupLogger(*logLevel)

	keyID, apiKey, err := cfg.API.AuthPair()
	if err != nil {
		applicationLogger.Error("Upstream credentials are required to fetch a dump", "error", err)
		os.Exit(1)
	}

	store, err := adapter.NewSQLiteStoreAdapter(*cachePath, applicationLogger)
	if err != nil {
		applicationLogger.Error("Failed to open cache store", "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	provider := adapter.NewRatehawkAPIAdapter(&adapter.APIConfig{
		BaseURL:    cfg.API.BaseURL,
		KeyID:      keyID,
		APIKey:     apiKey,
		Timeout:    cfg.API.Timeout(),
		RateLimit:  cfg.API.RateLimit,
		BurstLimit: cfg.API.BurstLimit,
	}, applicationLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	importer := usecase.NewImportDumpUseCase(store, applicationLogger)
	pipeline := usecase.NewFetchAndImportUseCase(provider, importer, applicationLogger)

	report, err := pipeline.Execute(ctx, usecase.FetchOptions{
		Language:   *language,
		OutputPath: *outputPath,
		Sandbox:    *sandbox,
		Limit:      *limit,
		BatchSize:  cfg.Cache.BatchSize,
	})
	if err != nil {
		applicationLogger.Error("Fetch and import failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Done. Imported %d hotels (%d skipped) into %s in %s\n",
		report.Imported, report.Skipped, *cachePath, report.Duration)
}
