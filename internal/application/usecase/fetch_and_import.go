package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
)

type FetchOptions struct {
	Language   string
	OutputPath string
	Sandbox    bool
	Limit      int
	BatchSize  int
}

// FetchAndImportUseCase asks the upstream for a fresh dump URL, streams the
// compressed artifact to disk (kept for reuse and debugging) and drives the
// importer over it. A failed run never corrupts the cache: batches already
// committed by a previous attempt stay valid and re-importing is idempotent.
type FetchAndImportUseCase struct {
	provider hotel.Provider
	importer *ImportDumpUseCase
	logger   *slog.Logger
}

func NewFetchAndImportUseCase(provider hotel.Provider, importer *ImportDumpUseCase, logger *slog.Logger) *FetchAndImportUseCase {
	return &FetchAndImportUseCase{provider: provider, importer: importer, logger: logger}
}

func (uc *FetchAndImportUseCase) Execute(ctx context.Context, opts FetchOptions) (*ImportReport, error) {
	uc.logger.Info("Requesting dump URL", "language", opts.Language, "sandbox", opts.Sandbox)

	dumpURL, err := uc.provider.DumpURL(ctx, opts.Language, opts.Sandbox)
	if err != nil {
		return nil, fmt.Errorf("fetch dump url: %w", err)
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dump directory: %w", err)
		}
	}

	file, err := os.Create(opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}

	uc.logger.Info("Downloading dump", "output", opts.OutputPath)
	if err := uc.provider.DownloadDump(ctx, dumpURL, file); err != nil {
		_ = file.Close()
		_ = os.Remove(opts.OutputPath)
		return nil, fmt.Errorf("download dump: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("close dump file: %w", err)
	}

	return uc.importer.Execute(ctx, ImportOptions{
		DumpPath:  opts.OutputPath,
		Language:  opts.Language,
		Limit:     opts.Limit,
		BatchSize: opts.BatchSize,
	})
}
