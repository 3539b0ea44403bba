package driven

import "context"

// BrowserResultType classifies how an interactive auth session ended.
type BrowserResultType string

const (
	// BrowserSuccess means the flow completed and URL carries the final
	// redirect URI.
	BrowserSuccess BrowserResultType = "success"
	// BrowserCancel means the user dismissed the flow.
	BrowserCancel BrowserResultType = "cancel"
	// BrowserOther means the flow ended without a URL for another reason.
	BrowserOther BrowserResultType = "other"
)

// BrowserResult is the terminal outcome of an interactive auth session.
type BrowserResult struct {
	Type BrowserResultType
	// URL is the final redirect URI. Set only for BrowserSuccess.
	URL string
}

// AuthBrowser runs the interactive provider-auth flow in an external
// browser. The call suspends until the flow terminates; no timeout is
// imposed here beyond ctx.
type AuthBrowser interface {
	// RedirectTo is the redirect target to embed in the authorize URL.
	RedirectTo() string

	// OpenAuthSession opens authURL and waits for one of the three
	// terminal outcomes. The error return is for launch failures; flow
	// failures are reported through BrowserResult.
	OpenAuthSession(ctx context.Context, authURL string) (BrowserResult, error)
}
