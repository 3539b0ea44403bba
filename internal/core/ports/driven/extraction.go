package driven

import (
	"context"
	"encoding/json"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
)

// ExtractionRequest is the wire request for the remote extraction call.
// Exactly one of ImageBase64 and Text is non-empty; the other is sent as
// JSON null.
type ExtractionRequest struct {
	UserID      string
	ImageBase64 string
	Text        string
}

// SaveRequest is the wire request for the remote calendar-save call.
// ExtractionID deduplicates the calendar write on the remote side, which is
// what makes a save-only retry safe.
type SaveRequest struct {
	UserID               string
	ExtractionID         string
	Event                domain.CalendarEvent
	ProviderToken        string
	ProviderRefreshToken string
}

// ExtractionAPI is the remote extraction and calendar-save collaborator.
// Implementations map remote failures onto the domain taxonomy:
// ErrExtractionFailed for a failed extract, ErrSessionExpired for a save
// rejected with 401, ErrSaveFailed for any other save failure. Remote error
// messages are preserved verbatim in the wrapped error.
type ExtractionAPI interface {
	// ExtractEvent performs the extraction phase. A successful call has
	// consumed one unit of quota server-side regardless of what happens
	// afterwards.
	ExtractEvent(ctx context.Context, req ExtractionRequest) (*domain.ExtractionResult, error)

	// SaveToCalendar performs the save phase.
	SaveToCalendar(ctx context.Context, req SaveRequest) error

	// DebugUser fetches the server's diagnostic view of the user.
	DebugUser(ctx context.Context, userID string) (json.RawMessage, error)
}

// QuotaReader reads the user's remaining extraction quota. The server is
// the source of truth; the count is monotonically non-increasing except for
// out-of-band replenishment.
type QuotaReader interface {
	TrialEventsRemaining(ctx context.Context, userID string) (int, error)
}
