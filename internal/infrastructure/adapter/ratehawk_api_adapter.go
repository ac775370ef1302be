package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
)

const (
	hotelInfoEndpoint = "/api/b2b/v3/hotel/info/"
	dumpEndpoint      = "/api/b2b/v3/hotel/info/dump/"
	sandboxHost       = "https://api-sandbox.worldota.net"
)

// RatehawkAPIAdapter talks to the RateHawk pAPI. One request per call: the
// single-flight layer above already bounds concurrent identical fetches, so
// no retries happen here.
type RatehawkAPIAdapter struct {
	client         *http.Client
	downloadClient *http.Client
	baseURL        string
	keyID          string
	apiKey         string
	rateLimiter    *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *slog.Logger
}

type APIConfig struct {
	BaseURL    string
	KeyID      string
	APIKey     string
	Timeout    time.Duration
	RateLimit  float64
	BurstLimit int
}

func NewRatehawkAPIAdapter(config *APIConfig, logger *slog.Logger) *RatehawkAPIAdapter {
	transport := &http.Transport{
		MaxIdleConns:       100,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	cbSettings := gobreaker.Settings{
		Name:    "ratehawk-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &RatehawkAPIAdapter{
		client: &http.Client{Timeout: config.Timeout, Transport: transport},
		// Dump downloads run for minutes; they are bounded by ctx, not by
		// the per-request timeout.
		downloadClient: &http.Client{Transport: transport},
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		keyID:          config.KeyID,
		apiKey:         config.APIKey,
		rateLimiter:    rate.NewLimiter(rate.Limit(config.RateLimit), config.BurstLimit),
		circuitBreaker: gobreaker.NewCircuitBreaker(cbSettings),
		logger:         logger,
	}
}

type apiEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Error  json.RawMessage `json:"error"`
	Status string          `json:"status"`
}

func (e *apiEnvelope) hasError() bool {
	return len(e.Error) > 0 && string(e.Error) != "null" && string(e.Error) != `""`
}

func (a *RatehawkAPIAdapter) GetHotelInfo(ctx context.Context, hotelID, language string) (json.RawMessage, error) {
	body := map[string]string{"id": hotelID, "language": language}

	envelope, err := a.post(ctx, a.baseURL+hotelInfoEndpoint, body)
	if err != nil {
		return nil, fmt.Errorf("hotel info request for %s/%s: %w", hotelID, language, err)
	}
	if envelope.hasError() {
		errText := strings.Trim(string(envelope.Error), `"`)
		if strings.Contains(errText, "not_found") {
			return nil, hotel.ErrNotFound
		}
		return nil, fmt.Errorf("hotel info request for %s/%s: upstream error: %s", hotelID, language, errText)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, hotel.ErrNotFound
	}

	// Cached payloads keep the response envelope shape so live fetches and
	// dump imports are interchangeable.
	payload, err := json.Marshal(map[string]any{
		"status": "ok",
		"error":  nil,
		"debug":  nil,
		"data":   envelope.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode hotel info payload: %w", err)
	}
	return payload, nil
}

func (a *RatehawkAPIAdapter) DumpURL(ctx context.Context, language string, sandbox bool) (string, error) {
	host := a.baseURL
	if sandbox {
		host = sandboxHost
	}
	body := map[string]string{"inventory": "all", "language": language}

	envelope, err := a.post(ctx, host+dumpEndpoint, body)
	if err != nil {
		return "", fmt.Errorf("dump url request for language %s: %w", language, err)
	}
	if envelope.hasError() {
		return "", fmt.Errorf("dump url request for language %s: upstream error: %s", language, strings.Trim(string(envelope.Error), `"`))
	}

	var data struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil || data.URL == "" {
		return "", fmt.Errorf("dump url request for language %s: no url in response", language)
	}
	return data.URL, nil
}

func (a *RatehawkAPIAdapter) DownloadDump(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build dump download request: %w", err)
	}

	resp, err := a.downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("download dump: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download dump: unexpected status %d", resp.StatusCode)
	}

	written, err := io.Copy(dst, resp.Body)
	if err != nil {
		return fmt.Errorf("download dump after %d bytes: %w", written, err)
	}
	a.logger.Info("Dump downloaded", "bytes", written)
	return nil
}

func (a *RatehawkAPIAdapter) post(ctx context.Context, url string, body any) (*apiEnvelope, error) {
	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := a.circuitBreaker.Execute(func() (any, error) {
		return a.doPost(ctx, url, body)
	})
	if err != nil {
		return nil, err
	}
	return result.(*apiEnvelope), nil
}

func (a *RatehawkAPIAdapter) doPost(ctx context.Context, url string, body any) (*apiEnvelope, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(a.keyID, a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, hotel.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &envelope, nil
}
