package driving

import (
	"context"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
)

// SessionMonitor exposes the reconciled session state and its transitions.
//
// Subscribers receive every transition, in fold order, exactly once —
// including edges that do not change the folded status, since redirect
// logic is edge-triggered. Each subscriber owns its subscription lifetime
// and must release it on disposal; unbounded subscriber growth is a defect.
type SessionMonitor interface {
	// Current returns the folded state. AuthUnknown only while the
	// initial restoration read is in flight.
	Current() domain.AuthState

	// Subscribe registers a new observer. The returned cancel function
	// releases the subscription and closes the channel.
	Subscribe() (<-chan domain.AuthChange, func())

	// WaitReady blocks until the initial restoration resolves, so callers
	// never act on AuthUnknown.
	WaitReady(ctx context.Context) error
}
