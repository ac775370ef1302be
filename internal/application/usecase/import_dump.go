package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
)

const (
	defaultBatchSize = 500

	// Dump lines can carry hotels with hundreds of images; the scanner
	// buffer has to grow well past its 64K default.
	scannerInitialBuffer = 1 << 20
	scannerMaxBuffer     = 1 << 24
)

type ImportOptions struct {
	DumpPath  string
	Language  string
	Limit     int
	BatchSize int
}

type ImportReport struct {
	Imported int
	Skipped  int
	Duration time.Duration
}

// ImportDumpUseCase streams a compressed catalog dump into the cache store in
// bounded batches. Malformed records are counted and skipped; re-running the
// import is idempotent because upserts are last-writer-wins.
type ImportDumpUseCase struct {
	store  hotel.Store
	logger *slog.Logger
}

func NewImportDumpUseCase(store hotel.Store, logger *slog.Logger) *ImportDumpUseCase {
	return &ImportDumpUseCase{store: store, logger: logger}
}

func (uc *ImportDumpUseCase) Execute(ctx context.Context, opts ImportOptions) (*ImportReport, error) {
	startTime := time.Now()

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	file, err := os.Open(opts.DumpPath)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer func() { _ = file.Close() }()

	var reader io.Reader = file
	if strings.HasSuffix(opts.DumpPath, ".zst") {
		decoder, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer decoder.Close()
		reader = decoder
	}

	uc.logger.Info("Starting dump import",
		"dump", opts.DumpPath,
		"language", opts.Language,
		"limit", opts.Limit,
		"batch_size", batchSize)

	report := &ImportReport{}
	batch := make([]hotel.Info, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := uc.store.PutBatch(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(startTime)
			return report, err
		}

		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		info, err := hotel.FromDumpRecord(line, opts.Language)
		if err != nil {
			report.Skipped++
			continue
		}

		batch = append(batch, *info)
		report.Imported++

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				report.Imported -= len(batch)
				report.Duration = time.Since(startTime)
				return report, fmt.Errorf("import batch: %w", err)
			}
		}

		if report.Imported%1000 == 0 {
			uc.logger.Info("Import progress", "imported", report.Imported, "skipped", report.Skipped)
		}
		if opts.Limit > 0 && report.Imported >= opts.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		report.Duration = time.Since(startTime)
		return report, fmt.Errorf("read dump: %w", err)
	}

	if err := flush(); err != nil {
		report.Imported -= len(batch)
		report.Duration = time.Since(startTime)
		return report, fmt.Errorf("import final batch: %w", err)
	}

	report.Duration = time.Since(startTime)
	uc.logger.Info("Dump import completed",
		"imported", report.Imported,
		"skipped", report.Skipped,
		"duration", report.Duration)
	return report, nil
}
