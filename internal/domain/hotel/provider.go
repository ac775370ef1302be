package hotel

import (
	"context"
	"encoding/json"
	"io"
)

// Provider is the upstream Hotel Info collaborator. It is treated as opaque:
// payloads come back verbatim and no retries happen beyond the single call.
type Provider interface {
	// GetHotelInfo fetches the info payload for one hotel in one language.
	// Returns ErrNotFound when the upstream knows no such hotel and
	// ErrRateLimited on 429 responses.
	GetHotelInfo(ctx context.Context, hotelID, language string) (json.RawMessage, error)

	// DumpURL requests the URL of the compressed full-catalog export for a
	// language. The sandbox flag switches to the sandbox host.
	DumpURL(ctx context.Context, language string, sandbox bool) (string, error)

	// DownloadDump streams the dump artifact at url into dst.
	DownloadDump(ctx context.Context, url string, dst io.Writer) error
}
