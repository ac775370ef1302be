package usecase

import (
	"context"
	"log/slog"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
)

// WarmupUseCase populates an absent or empty cache at process start. It is
// an optimization: callers log its error and keep starting up regardless.
type WarmupUseCase struct {
	store    hotel.Store
	pipeline *FetchAndImportUseCase
	options  FetchOptions
	logger   *slog.Logger
}

func NewWarmupUseCase(store hotel.Store, pipeline *FetchAndImportUseCase, options FetchOptions, logger *slog.Logger) *WarmupUseCase {
	return &WarmupUseCase{store: store, pipeline: pipeline, options: options, logger: logger}
}

func (uc *WarmupUseCase) Execute(ctx context.Context) error {
	count, err := uc.store.Count(ctx)
	if err != nil {
		// An unreadable store counts as empty; the import below will
		// rebuild it or fail with a clearer error.
		uc.logger.Warn("Cache count failed during warm-up", "error", err)
		count = 0
	}
	if count > 0 {
		uc.logger.Info("Cache already populated, skipping warm-up", "entries", count)
		return nil
	}

	uc.logger.Info("Cache empty, warming up from dump", "language", uc.options.Language)

	report, err := uc.pipeline.Execute(ctx, uc.options)
	if err != nil {
		return err
	}

	uc.logger.Info("Warm-up completed",
		"imported", report.Imported,
		"skipped", report.Skipped,
		"duration", report.Duration)
	return nil
}
