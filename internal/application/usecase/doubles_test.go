package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ddimitrako/ratehawk-hotels-backend/internal/domain/hotel"
)

// memStore is an in-memory hotel.Store double.
type memStore struct {
	mu      sync.RWMutex
	entries map[string]hotel.Info
	getErr  error
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]hotel.Info)}
}

func (s *memStore) Get(_ context.Context, hotelID, language string) (*hotel.Info, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.entries[hotelID+":"+language]
	if !ok {
		return nil, hotel.ErrNotFound
	}
	return &info, nil
}

func (s *memStore) Put(_ context.Context, hotelID, language string, payload json.RawMessage) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[hotelID+":"+language] = hotel.Info{
		HotelID:   hotelID,
		Language:  language,
		Payload:   payload,
		UpdatedAt: time.Now(),
	}
	return nil
}

func (s *memStore) PutBatch(ctx context.Context, infos []hotel.Info) error {
	if s.putErr != nil {
		return s.putErr
	}
	for _, info := range infos {
		if err := s.Put(ctx, info.HotelID, info.Language, info.Payload); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Count(_ context.Context) (int64, error) {
	if s.getErr != nil {
		return 0, s.getErr
	}
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

// stubProvider is a hotel.Provider double counting upstream calls.
type stubProvider struct {
	infoCalls    int64
	dumpURLCalls int64

	infoErr error
	started chan struct{} // signaled once on the first info call
	release chan struct{} // when set, info calls block until closed

	dumpURL     string
	dumpURLErr  error
	dumpBody    []byte
	downloadErr error
}

func (p *stubProvider) GetHotelInfo(_ context.Context, hotelID, language string) (json.RawMessage, error) {
	atomic.AddInt64(&p.infoCalls, 1)
	if p.started != nil {
		select {
		case p.started <- struct{}{}:
		default:
		}
	}
	if p.release != nil {
		<-p.release
	}
	if p.infoErr != nil {
		return nil, p.infoErr
	}
	payload := fmt.Sprintf(`{"status":"ok","error":null,"debug":null,"data":{"id":%q,"name":"Hotel %s","language":%q}}`, hotelID, hotelID, language)
	return json.RawMessage(payload), nil
}

func (p *stubProvider) DumpURL(_ context.Context, _ string, _ bool) (string, error) {
	atomic.AddInt64(&p.dumpURLCalls, 1)
	if p.dumpURLErr != nil {
		return "", p.dumpURLErr
	}
	return p.dumpURL, nil
}

func (p *stubProvider) DownloadDump(_ context.Context, _ string, dst io.Writer) error {
	if p.downloadErr != nil {
		return p.downloadErr
	}
	_, err := dst.Write(p.dumpBody)
	return err
}
