package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/application/usecase"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/infrastructure/handler"
)

type memStore struct {
	mu      sync.RWMutex
	entries map[string]hotel.Info
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]hotel.Info)}
}

func (s *memStore) Get(_ context.Context, hotelID, language string) (*hotel.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.entries[hotelID+":"+language]
	if !ok {
		return nil, hotel.ErrNotFound
	}
	return &info, nil
}

func (s *memStore) Put(_ context.Context, hotelID, language string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[hotelID+":"+language] = hotel.Info{
		HotelID: hotelID, Language: language, Payload: payload, UpdatedAt: time.Now(),
	}
	return nil
}

func (s *memStore) PutBatch(ctx context.Context, infos []hotel.Info) error {
	for _, info := range infos {
		if err := s.Put(ctx, info.HotelID, info.Language, info.Payload); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

func (s *memStore) LastUpdated(_ context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *time.Time
	for _, info := range s.entries {
		if last == nil || info.UpdatedAt.After(*last) {
			t := info.UpdatedAt
			last = &t
		}
	}
	return last, nil
}

type noopProvider struct{}

func (noopProvider) GetHotelInfo(context.Context, string, string) (json.RawMessage, error) {
	return nil, hotel.ErrNotFound
}

func (noopProvider) DumpURL(context.Context, string, bool) (string, error) {
	return "", hotel.ErrNotFound
}

func (noopProvider) DownloadDump(context.Context, string, io.Writer) error {
	return hotel.ErrNotFound
}

func newTestHandler(store *memStore) *handler.HotelHandler {
	logger := slog.New(slog.DiscardHandler)
	enricher := usecase.NewEnrichHotelsUseCase(store, noopProvider{}, 25, 8, time.Second, logger)
	return handler.NewHotelHandler(enricher, store, "/tmp/hotel_info.sqlite", "en", logger)
}

func newTestRouter(h *handler.HotelHandler) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/hotels/enrich", h.EnrichHotels).Methods(http.MethodPost)
	api.HandleFunc("/hotels/{hotel_id}", h.GetHotelInfo).Methods(http.MethodGet)
	api.HandleFunc("/cache/stats", h.GetCacheStats).Methods(http.MethodGet)
	return router
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var response handler.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	return response
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(newTestHandler(newMemStore()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	if response := decodeResponse(t, rec); !response.Success {
		t.Fatalf("response=%+v want success", response)
	}
}

func TestGetHotelInfo_Cached(t *testing.T) {
	store := newMemStore()
	cached := json.RawMessage(`{"status":"ok","data":{"id":"h1","name":"Hotel One"}}`)
	if err := store.Put(context.Background(), "h1", "en", cached); err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(newTestHandler(store))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hotels/h1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200, body=%s", rec.Code, rec.Body)
	}
	response := decodeResponse(t, rec)
	if !response.Success {
		t.Fatalf("response=%+v want success", response)
	}
	data, err := json.Marshal(response.Data)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Hotel One") {
		t.Fatalf("data=%s want cached payload", data)
	}
}

func TestGetHotelInfo_AbsentIs404(t *testing.T) {
	router := newTestRouter(newTestHandler(newMemStore()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hotels/absent", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", rec.Code)
	}
	if response := decodeResponse(t, rec); response.Success {
		t.Fatalf("response=%+v want failure", response)
	}
}

func TestGetHotelInfo_LanguageQuerySelectsVariant(t *testing.T) {
	store := newMemStore()
	_ = store.Put(context.Background(), "h1", "en", json.RawMessage(`{"lang":"en"}`))
	_ = store.Put(context.Background(), "h1", "es", json.RawMessage(`{"lang":"es"}`))
	router := newTestRouter(newTestHandler(store))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hotels/h1?language=es", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	response := decodeResponse(t, rec)
	data, _ := json.Marshal(response.Data)
	if !strings.Contains(string(data), `"es"`) {
		t.Fatalf("data=%s want es variant", data)
	}
}

func TestEnrichHotels_BatchWithNullsForMisses(t *testing.T) {
	store := newMemStore()
	_ = store.Put(context.Background(), "h1", "en", json.RawMessage(`{"id":"h1"}`))
	router := newTestRouter(newTestHandler(store))

	body := strings.NewReader(`{"hotel_ids":["h1","h2"],"language":"en"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/hotels/enrich", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	response := decodeResponse(t, rec)
	results, ok := response.Data.(map[string]any)
	if !ok {
		t.Fatalf("data=%T want object keyed by hotel id", response.Data)
	}
	if len(results) != 2 {
		t.Fatalf("results=%d want 2", len(results))
	}
	if results["h1"] == nil {
		t.Fatal("h1 should carry a payload")
	}
	if results["h2"] != nil {
		t.Fatal("h2 should be null when it cannot be enriched")
	}
}

func TestEnrichHotels_EmptyBodyRejected(t *testing.T) {
	router := newTestRouter(newTestHandler(newMemStore()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/hotels/enrich", strings.NewReader(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", rec.Code)
	}
}

func TestEnrichHotels_OversizedBatchRejected(t *testing.T) {
	router := newTestRouter(newTestHandler(newMemStore()))

	ids := make([]string, 501)
	for i := range ids {
		ids[i] = "h"
	}
	body, _ := json.Marshal(map[string]any{"hotel_ids": ids})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/hotels/enrich", strings.NewReader(string(body))))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", rec.Code)
	}
}

func TestGetCacheStats(t *testing.T) {
	store := newMemStore()
	_ = store.Put(context.Background(), "h1", "en", json.RawMessage(`{}`))
	router := newTestRouter(newTestHandler(store))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	response := decodeResponse(t, rec)
	stats, ok := response.Data.(map[string]any)
	if !ok {
		t.Fatalf("data=%T want stats object", response.Data)
	}
	if stats["enabled"] != true {
		t.Fatalf("enabled=%v want true", stats["enabled"])
	}
	if stats["count"].(float64) != 1 {
		t.Fatalf("count=%v want 1", stats["count"])
	}
	if stats["budget_limit"].(float64) != 25 {
		t.Fatalf("budget_limit=%v want 25", stats["budget_limit"])
	}
	if stats["path"] != "/tmp/hotel_info.sqlite" {
		t.Fatalf("path=%v", stats["path"])
	}
	if stats["last_updated"] == nil {
		t.Fatal("last_updated missing")
	}
}
