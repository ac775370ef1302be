package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gorilla/mux"
	"github.com/jasonlvhit/gocron"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/application/usecase"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/infrastructure/adapter"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/infrastructure/config"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/infrastructure/handler"
	"github.com/Ddimitrako/ratehawk-hotels-backend/pkg/logger"
)

type Application struct {
	config *config.Config
	logger *slog.Logger
	server *http.Server

	store    *adapter.SQLiteStoreAdapter
	provider *adapter.RatehawkAPIAdapter

	enrichHotelsUseCase   *usecase.EnrichHotelsUseCase
	importDumpUseCase     *usecase.ImportDumpUseCase
	fetchAndImportUseCase *usecase.FetchAndImportUseCase
	warmupUseCase         *usecase.WarmupUseCase

	hotelHandler *handler.HotelHandler
	scheduler    *gocron.Scheduler
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	applicationLogger := logger.SetupLogger(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		applicationLogger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := NewApplication(cfg, applicationLogger)
	if err != nil {
		applicationLogger.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		applicationLogger.Error("Failed to start application", "error", err)
		os.Exit(1)
	}
}

func NewApplication(cfg *config.Config, applicationLogger *slog.Logger) (*Application, error) {
	store, err := adapter.NewSQLiteStoreAdapter(cfg.Cache.Path, applicationLogger)
	if err != nil {
		return nil, err
	}

	keyID, apiKey, err := cfg.API.AuthPair()
	if err != nil {
		// Cache-only deployments serve whatever the store already holds.
		applicationLogger.Warn("Upstream credentials not configured, enrichment fetches will fail", "error", err)
	}

	provider := adapter.NewRatehawkAPIAdapter(&adapter.APIConfig{
		BaseURL:    cfg.API.BaseURL,
		KeyID:      keyID,
		APIKey:     apiKey,
		Timeout:    cfg.API.Timeout(),
		RateLimit:  cfg.API.RateLimit,
		BurstLimit: cfg.API.BurstLimit,
	}, applicationLogger)

	enrichHotelsUseCase := usecase.NewEnrichHotelsUseCase(
		store,
		provider,
		cfg.Cache.InfoBudget,
		cfg.Cache.EnrichConcurrency,
		cfg.API.Timeout(),
		applicationLogger,
	)

	importDumpUseCase := usecase.NewImportDumpUseCase(store, applicationLogger)
	fetchAndImportUseCase := usecase.NewFetchAndImportUseCase(provider, importDumpUseCase, applicationLogger)

	warmupUseCase := usecase.NewWarmupUseCase(store, fetchAndImportUseCase, usecase.FetchOptions{
		Language:   cfg.API.DefaultLanguage,
		OutputPath: cfg.Cache.DumpPath,
		Sandbox:    cfg.API.Sandbox,
		BatchSize:  cfg.Cache.BatchSize,
	}, applicationLogger)

	hotelHandler := handler.NewHotelHandler(
		enrichHotelsUseCase,
		store,
		cfg.Cache.Path,
		cfg.API.DefaultLanguage,
		applicationLogger,
	)

	app := &Application{
		config:                cfg,
		logger:                applicationLogger,
		store:                 store,
		provider:              provider,
		enrichHotelsUseCase:   enrichHotelsUseCase,
		importDumpUseCase:     importDumpUseCase,
		fetchAndImportUseCase: fetchAndImportUseCase,
		warmupUseCase:         warmupUseCase,
		hotelHandler:          hotelHandler,
	}
	app.server = initServer(cfg.Server, hotelHandler, applicationLogger)
	return app, nil
}

func (app *Application) Start() error {
	ctx := context.Background()

	app.logger.Info("Starting hotel info service",
		"address", app.config.Server.Address(),
		"cache_path", app.config.Cache.Path,
		"info_budget", app.config.Cache.InfoBudget)

	if app.config.Cache.WarmupOnStart {
		// Best effort: a failed warm-up must never block serving traffic.
		go func() {
			if err := app.warmupUseCase.Execute(ctx); err != nil {
				app.logger.Error("Cache warm-up failed", "error", err)
			}
		}()
	}

	if app.config.Cache.RefreshHours > 0 {
		app.startPeriodicRefresh()
	}

	go func() {
		figure.NewFigure("HOTELS API", "", true).Print()
		fmt.Println("")
		if err := app.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("HTTP server failed", "error", err)
		}
	}()

	app.waitForShutdown()
	return nil
}

func (app *Application) startPeriodicRefresh() {
	app.scheduler = gocron.NewScheduler()

	err := app.scheduler.Every(app.config.Cache.RefreshHours).Hours().Do(func() {
		app.logger.Info("Starting scheduled dump refresh")
		report, err := app.fetchAndImportUseCase.Execute(context.Background(), usecase.FetchOptions{
			Language:   app.config.API.DefaultLanguage,
			OutputPath: app.config.Cache.DumpPath,
			Sandbox:    app.config.API.Sandbox,
			BatchSize:  app.config.Cache.BatchSize,
		})
		if err != nil {
			app.logger.Error("Scheduled dump refresh failed", "error", err)
			return
		}
		app.logger.Info("Scheduled dump refresh completed",
			"imported", report.Imported,
			"skipped", report.Skipped,
			"duration", report.Duration)
	})
	if err != nil {
		app.logger.Error("Failed to schedule dump refresh", "error", err)
		return
	}

	app.scheduler.Start()
	app.logger.Info("Periodic dump refresh scheduled", "every_hours", app.config.Cache.RefreshHours)
}

func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	app.logger.Info("Shutting down server...")

	if app.scheduler != nil {
		app.scheduler.Clear()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("Server forced to shutdown", "error", err)
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error("Error closing cache store", "error", err)
	}

	app.logger.Info("Server stopped gracefully")
}

func initServer(cfg config.ServerConfig, hotelHandler *handler.HotelHandler, applicationLogger *slog.Logger) *http.Server {
	router := mux.NewRouter()
	router.Use(loggingMiddleware(applicationLogger))

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/healthz", hotelHandler.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/hotels/enrich", hotelHandler.EnrichHotels).Methods(http.MethodPost)
	api.HandleFunc("/hotels/{hotel_id}", hotelHandler.GetHotelInfo).Methods(http.MethodGet)
	api.HandleFunc("/cache/stats", hotelHandler.GetCacheStats).Methods(http.MethodGet)

	return &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func loggingMiddleware(applicationLogger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			next.ServeHTTP(w, r)
			applicationLogger.Debug("Request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(startTime))
		})
	}
}
