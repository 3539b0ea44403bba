package driving

import (
	"context"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
)

// ExchangeOutcome reports what a redirect exchange accomplished.
type ExchangeOutcome struct {
	// Session is the established session.
	Session *domain.Session
	// ProviderTokenPresent is true if the redirect fragment carried a
	// provider token.
	ProviderTokenPresent bool
	// ProviderTokenStored is true if that token reached the vault.
	// False with ProviderTokenPresent true means the session stands but a
	// later save will report the credential missing.
	ProviderTokenStored bool
	// Duplicate is true if this redirect's access token was already
	// submitted in the current attempt window; the cached outcome is
	// returned and no second exchange was made.
	Duplicate bool
}

// TokenExchanger turns a redirect URI into an established session plus a
// stored provider credential. The same logical redirect can arrive twice
// (once via the listener channel, once as the browser call's return value);
// HandleRedirect is idempotent per access-token value within one attempt
// window.
type TokenExchanger interface {
	// HandleRedirect consumes one redirect URI. Malformed URIs fail with
	// ErrMalformedRedirect before any exchange call; provider rejections
	// fail with ErrProviderAuth carrying the provider's reason.
	HandleRedirect(ctx context.Context, rawURI string) (*ExchangeOutcome, error)

	// SignIn runs the full interactive flow: open the browser, wait for
	// one of its three terminal outcomes, and exchange the resulting
	// redirect. User dismissal resets to idle and returns
	// ErrSignInCancelled with no side effects.
	SignIn(ctx context.Context, browser driven.AuthBrowser) (*ExchangeOutcome, error)

	// Reset clears the attempt window and returns the exchanger to idle.
	Reset()
}
