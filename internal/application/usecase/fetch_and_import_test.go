package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/application/usecase"
)

func compressLines(t *testing.T, lines []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := encoder.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFetchAndImport_DownloadsAndImports(t *testing.T) {
	store := newMemStore()
	provider := &stubProvider{
		dumpURL:  "https://cdn.example.com/dump.json.zst",
		dumpBody: compressLines(t, dumpLines()),
	}
	importer := usecase.NewImportDumpUseCase(store, discardLogger())
	pipeline := usecase.NewFetchAndImportUseCase(provider, importer, discardLogger())

	outputPath := filepath.Join(t.TempDir(), "dumps", "hotels.json.zst")
	report, err := pipeline.Execute(context.Background(), usecase.FetchOptions{
		Language:   "en",
		OutputPath: outputPath,
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Imported != 3 {
		t.Fatalf("imported=%d want 3", report.Imported)
	}
	if count, _ := store.Count(context.Background()); count != 3 {
		t.Fatalf("store count=%d want 3", count)
	}

	// The artifact stays on disk for reuse.
	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("dump artifact missing: %v", err)
	}
	if !bytes.Equal(data, provider.dumpBody) {
		t.Fatal("persisted dump differs from downloaded body")
	}
}

func TestFetchAndImport_LimitForwarded(t *testing.T) {
	store := newMemStore()
	provider := &stubProvider{
		dumpURL:  "https://cdn.example.com/dump.json.zst",
		dumpBody: compressLines(t, dumpLines()),
	}
	pipeline := usecase.NewFetchAndImportUseCase(provider,
		usecase.NewImportDumpUseCase(store, discardLogger()), discardLogger())

	report, err := pipeline.Execute(context.Background(), usecase.FetchOptions{
		Language:   "en",
		OutputPath: filepath.Join(t.TempDir(), "hotels.json.zst"),
		Limit:      2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Imported != 2 {
		t.Fatalf("imported=%d want 2", report.Imported)
	}
}

func TestFetchAndImport_DumpURLFailure(t *testing.T) {
	store := newMemStore()
	provider := &stubProvider{dumpURLErr: errors.New("upstream unavailable")}
	pipeline := usecase.NewFetchAndImportUseCase(provider,
		usecase.NewImportDumpUseCase(store, discardLogger()), discardLogger())

	outputPath := filepath.Join(t.TempDir(), "hotels.json.zst")
	if _, err := pipeline.Execute(context.Background(), usecase.FetchOptions{
		Language:   "en",
		OutputPath: outputPath,
	}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Fatal("no file should be created when the dump URL cannot be resolved")
	}
	if count, _ := store.Count(context.Background()); count != 0 {
		t.Fatalf("store count=%d want 0", count)
	}
}

func TestFetchAndImport_DownloadFailureRemovesPartialFile(t *testing.T) {
	store := newMemStore()
	provider := &stubProvider{
		dumpURL:     "https://cdn.example.com/dump.json.zst",
		downloadErr: errors.New("connection reset"),
	}
	pipeline := usecase.NewFetchAndImportUseCase(provider,
		usecase.NewImportDumpUseCase(store, discardLogger()), discardLogger())

	outputPath := filepath.Join(t.TempDir(), "hotels.json.zst")
	if _, err := pipeline.Execute(context.Background(), usecase.FetchOptions{
		Language:   "en",
		OutputPath: outputPath,
	}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(outputPath); !os.IsNotExist(err) {
		t.Fatal("partial dump file should be removed after a failed download")
	}
}
