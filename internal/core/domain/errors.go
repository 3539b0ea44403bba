package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid local input.
	// Raised before any network call is made.
	ErrInvalidInput = errors.New("invalid input")

	// Redirect / sign-in errors.

	// ErrMalformedRedirect indicates a redirect URI without a fragment or
	// without both primary tokens. Terminal for the attempt; never retried.
	ErrMalformedRedirect = errors.New("no valid tokens found in redirect")

	// ErrProviderAuth indicates the identity provider rejected the token
	// exchange. The provider's rejection reason is attached by the caller.
	ErrProviderAuth = errors.New("identity provider rejected token exchange")

	// ErrSignInCancelled indicates the user dismissed the browser auth flow.
	ErrSignInCancelled = errors.New("sign-in cancelled")

	// Extraction / save errors.

	// ErrExtractionFailed indicates the remote extraction call failed.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrSaveFailed indicates the calendar save call failed for a reason
	// other than credential rejection. The extraction is retained so the
	// save can be retried without a new extraction.
	ErrSaveFailed = errors.New("calendar save failed")

	// ErrProviderCredentialMissing indicates no calendar provider token is
	// stored locally. Recovery requires a full sign-out and sign-in, not a
	// token refresh.
	ErrProviderCredentialMissing = errors.New("calendar credential missing")

	// ErrSessionExpired indicates the remote service rejected the stored
	// provider token as invalid or revoked. Same user-facing recovery as
	// ErrProviderCredentialMissing, but the two are logged distinctly:
	// one points at local storage, the other at remote revocation.
	ErrSessionExpired = errors.New("calendar credential rejected")

	// ErrNoPendingSave indicates there is no retained extraction to retry.
	ErrNoPendingSave = errors.New("no extraction pending save")
)

// NeedsReauth returns true if the error requires the user to sign out and
// sign in again. Both credential conditions collapse to the same instruction
// even though they are reported separately.
func NeedsReauth(err error) bool {
	return errors.Is(err, ErrProviderCredentialMissing) || errors.Is(err, ErrSessionExpired)
}
