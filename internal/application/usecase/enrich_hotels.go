package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/pkg/budget"
)

// ErrBudgetExhausted marks hotels left unenriched because the search already
// spent its upstream-call allowance.
var ErrBudgetExhausted = errors.New("hotel info budget exhausted")

// EnrichHotelsUseCase resolves Hotel Info payloads for a set of hotels:
// cache first, then budget-gated upstream fetches deduplicated per key.
type EnrichHotelsUseCase struct {
	store        hotel.Store
	provider     hotel.Provider
	flights      singleflight.Group
	budgetLimit  int
	concurrency  int
	fetchTimeout time.Duration
	logger       *slog.Logger
}

func NewEnrichHotelsUseCase(
	store hotel.Store,
	provider hotel.Provider,
	budgetLimit int,
	concurrency int,
	fetchTimeout time.Duration,
	logger *slog.Logger,
) *EnrichHotelsUseCase {
	if concurrency <= 0 {
		concurrency = 8
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &EnrichHotelsUseCase{
		store:        store,
		provider:     provider,
		budgetLimit:  budgetLimit,
		concurrency:  concurrency,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// BudgetLimit returns the configured per-search allowance.
func (uc *EnrichHotelsUseCase) BudgetLimit() int {
	return uc.budgetLimit
}

// Execute returns one entry per requested hotel id: the payload when cached
// or fetched, nil when enrichment was denied or failed. The whole operation
// never fails because of one hotel; at most BudgetLimit new upstream calls
// are issued.
func (uc *EnrichHotelsUseCase) Execute(ctx context.Context, hotelIDs []string, language string) map[string]json.RawMessage {
	operationID := uuid.New().String()
	searchBudget := budget.New(uc.budgetLimit)

	results := make(map[string]json.RawMessage, len(hotelIDs))
	var mu sync.Mutex

	var group errgroup.Group
	group.SetLimit(uc.concurrency)

	for _, hotelID := range uniqueIDs(hotelIDs) {
		group.Go(func() error {
			payload := uc.enrichOne(ctx, searchBudget, hotelID, language, operationID)
			mu.Lock()
			results[hotelID] = payload
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return results
}

func (uc *EnrichHotelsUseCase) enrichOne(ctx context.Context, searchBudget *budget.Budget, hotelID, language, operationID string) json.RawMessage {
	cached, err := uc.store.Get(ctx, hotelID, language)
	if err == nil {
		return cached.Payload
	}
	if !errors.Is(err, hotel.ErrNotFound) {
		// A broken store read degrades to a miss; the fetch path below may
		// still enrich the hotel.
		uc.logger.Warn("Cache read failed",
			"hotel_id", hotelID,
			"language", language,
			"operation_id", operationID,
			"error", err)
	}

	key := hotelID + ":" + language
	resultChan := uc.flights.DoChan(key, func() (any, error) {
		return uc.fetchAndCache(ctx, searchBudget, hotelID, language, operationID)
	})

	select {
	case result := <-resultChan:
		if result.Err != nil {
			if errors.Is(result.Err, ErrBudgetExhausted) {
				uc.logger.Debug("Enrichment skipped, budget exhausted",
					"hotel_id", hotelID,
					"language", language,
					"operation_id", operationID)
			} else {
				uc.logger.Warn("Enrichment failed",
					"hotel_id", hotelID,
					"language", language,
					"operation_id", operationID,
					"error", result.Err)
			}
			return nil
		}
		return result.Val.(json.RawMessage)
	case <-ctx.Done():
		// The search gave up, but the in-flight fetch keeps going and will
		// populate the cache for later callers.
		uc.logger.Debug("Enrichment wait cancelled",
			"hotel_id", hotelID,
			"operation_id", operationID)
		return nil
	}
}

// fetchAndCache runs only in the instigating caller of a single-flight slot,
// so exactly one budget unit is spent per upstream attempt and joiners never
// pay.
func (uc *EnrichHotelsUseCase) fetchAndCache(ctx context.Context, searchBudget *budget.Budget, hotelID, language, operationID string) (any, error) {
	if !searchBudget.TryConsume() {
		return nil, ErrBudgetExhausted
	}

	// Detached from the triggering search: cache population survives its
	// trigger being cancelled.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.fetchTimeout)
	defer cancel()

	payload, err := uc.provider.GetHotelInfo(fetchCtx, hotelID, language)
	if err != nil {
		return nil, err
	}

	if err := uc.store.Put(fetchCtx, hotelID, language, payload); err != nil {
		// The caller still gets the payload; only later searches miss out.
		uc.logger.Error("Failed to cache fetched hotel info",
			"hotel_id", hotelID,
			"language", language,
			"operation_id", operationID,
			"error", err)
	}
	return payload, nil
}

func uniqueIDs(hotelIDs []string) []string {
	seen := make(map[string]struct{}, len(hotelIDs))
	unique := make([]string, 0, len(hotelIDs))
	for _, id := range hotelIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
