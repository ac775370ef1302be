package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/application/usecase"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
)

const maxEnrichBatch = 500

type HotelHandler struct {
	enrichHotelsUseCase *usecase.EnrichHotelsUseCase
	store               hotel.Store
	cachePath           string
	defaultLanguage     string
	logger              *slog.Logger
}

func NewHotelHandler(
	enrichHotelsUseCase *usecase.EnrichHotelsUseCase,
	store hotel.Store,
	cachePath string,
	defaultLanguage string,
	logger *slog.Logger,
) *HotelHandler {
	return &HotelHandler{
		enrichHotelsUseCase: enrichHotelsUseCase,
		store:               store,
		cachePath:           cachePath,
		defaultLanguage:     defaultLanguage,
		logger:              logger,
	}
}

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type enrichRequest struct {
	HotelIDs []string `json:"hotel_ids"`
	Language string   `json:"language"`
}

type cacheStats struct {
	Enabled     bool       `json:"enabled"`
	Path        string     `json:"path"`
	Count       int64      `json:"count"`
	LastUpdated *time.Time `json:"last_updated"`
	BudgetLimit int        `json:"budget_limit"`
}

// GetHotelInfo returns the cached or freshly fetched info payload for one hotel.
func (h *HotelHandler) GetHotelInfo(w http.ResponseWriter, r *http.Request) {
	hotelID := mux.Vars(r)["hotel_id"]
	if hotelID == "" {
		h.writeErrorResponse(w, "hotel_id is required", http.StatusBadRequest)
		return
	}
	language := r.URL.Query().Get("language")
	if language == "" {
		language = h.defaultLanguage
	}

	results := h.enrichHotelsUseCase.Execute(r.Context(), []string{hotelID}, language)
	payload := results[hotelID]
	if payload == nil {
		h.writeErrorResponse(w, "hotel info not available", http.StatusNotFound)
		return
	}

	h.writeSuccessResponse(w, json.RawMessage(payload))
}

// EnrichHotels resolves payloads for a batch of hotels; hotels that could
// not be enriched come back as null entries rather than failing the call.
func (h *HotelHandler) EnrichHotels(w http.ResponseWriter, r *http.Request) {
	var request enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(request.HotelIDs) == 0 {
		h.writeErrorResponse(w, "hotel_ids is required", http.StatusBadRequest)
		return
	}
	if len(request.HotelIDs) > maxEnrichBatch {
		h.writeErrorResponse(w, "too many hotel_ids", http.StatusBadRequest)
		return
	}
	if request.Language == "" {
		request.Language = h.defaultLanguage
	}

	results := h.enrichHotelsUseCase.Execute(r.Context(), request.HotelIDs, request.Language)
	h.writeSuccessResponse(w, results)
}

// GetCacheStats exposes the read-only snapshot of the cache configuration.
func (h *HotelHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := cacheStats{
		Enabled:     h.store != nil,
		Path:        h.cachePath,
		BudgetLimit: h.enrichHotelsUseCase.BudgetLimit(),
	}

	if h.store != nil {
		count, err := h.store.Count(r.Context())
		if err != nil {
			h.logger.Error("Failed to count cache entries", "error", err)
			h.writeErrorResponse(w, "cache unavailable", http.StatusInternalServerError)
			return
		}
		stats.Count = count

		lastUpdated, err := h.store.LastUpdated(r.Context())
		if err != nil {
			h.logger.Error("Failed to read cache last update", "error", err)
			h.writeErrorResponse(w, "cache unavailable", http.StatusInternalServerError)
			return
		}
		stats.LastUpdated = lastUpdated
	}

	h.writeSuccessResponse(w, stats)
}

func (h *HotelHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeSuccessResponse(w, map[string]string{"status": "ok"})
}

func (h *HotelHandler) writeSuccessResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *HotelHandler) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message}); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
