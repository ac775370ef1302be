package hotel

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Store.Get on a cache miss and by
	// Provider.GetHotelInfo when the upstream knows no such hotel.
	ErrNotFound = errors.New("hotel info not found")

	// ErrRateLimited is returned when the upstream rejects a call with 429.
	ErrRateLimited = errors.New("upstream rate limited")
)

// Info is one cached Hotel Info payload. The payload is the upstream record
// stored verbatim; the cache never interprets its schema.
type Info struct {
	HotelID   string
	Language  string
	Payload   json.RawMessage
	UpdatedAt time.Time
}

// Key returns the cache identity of the entry.
func (i Info) Key() string {
	return i.HotelID + ":" + i.Language
}
