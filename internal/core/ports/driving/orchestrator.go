package driving

import (
	"context"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
)

// SaveOutcome is the result of a completed extract-and-save.
type SaveOutcome struct {
	Event domain.CalendarEvent
	// RemainingQuota is the post-extraction quota.
	RemainingQuota int
}

// EventOrchestrator drives the two-phase extract-then-save workflow.
//
// ExtractAndSave is not idempotent: every call consumes one unit of quota
// and produces a new extraction identifier. RetrySave alone is safe to
// repeat because the remote deduplicates on the extraction identifier.
type EventOrchestrator interface {
	// ExtractAndSave validates input locally, extracts, resolves the
	// provider credential and saves. On a post-extraction failure the
	// extraction is retained for RetrySave and the quota consumed by the
	// extraction is already published.
	ExtractAndSave(ctx context.Context, input domain.ExtractionInput) (*SaveOutcome, error)

	// RetrySave repeats the credential and save phases for the retained
	// extraction. ErrNoPendingSave if nothing is retained.
	RetrySave(ctx context.Context) (*SaveOutcome, error)

	// Pending returns the retained extraction, if any.
	Pending() (*domain.ExtractionResult, bool)

	// Cancel discards the retained extraction.
	Cancel()

	// RemainingQuota returns the last observed quota. ok is false before
	// any quota has been observed.
	RemainingQuota() (quota int, ok bool)

	// RefreshQuota re-reads the quota from the server and caches it.
	RefreshQuota(ctx context.Context) (int, error)
}
