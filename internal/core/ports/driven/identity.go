package driven

import (
	"context"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
)

// IdentityClient is the identity provider's client library. It owns the
// primary session token pair; the core only observes the sessions it
// returns and the change events it emits.
type IdentityClient interface {
	// AuthorizeURL builds the provider-auth browser URL. redirectTo is
	// where the provider sends the user after consent, with the tokens in
	// the URI fragment.
	AuthorizeURL(redirectTo string) string

	// SetSession establishes a session from a redirect token pair.
	// A provider rejection returns ErrProviderAuth with the provider's
	// reason attached.
	SetSession(ctx context.Context, accessToken, refreshToken string) (*domain.Session, error)

	// RestoreSession loads the last persisted session, refreshing it if
	// expired. Returns (nil, nil) when no restorable session exists.
	RestoreSession(ctx context.Context) (*domain.Session, error)

	// CurrentSession returns the established session, or nil.
	CurrentSession() *domain.Session

	// SignOut destroys the session locally and best-effort remotely.
	SignOut(ctx context.Context) error

	// OnAuthStateChange registers fn for every internal state change
	// (sign-in, sign-out, token refresh). The returned function releases
	// the registration; callers must invoke it on disposal.
	OnAuthStateChange(fn func(event domain.AuthEvent, session *domain.Session)) (unsubscribe func())
}
