package redirect

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/logger"
)

// Browser drives an interactive auth session through the system browser
// and the loopback catcher.
type Browser struct {
	catcher *Catcher
}

var _ driven.AuthBrowser = (*Browser)(nil)

// NewBrowser wraps a started catcher.
func NewBrowser(catcher *Catcher) *Browser {
	return &Browser{catcher: catcher}
}

// RedirectTo returns the loopback redirect target.
func (b *Browser) RedirectTo() string {
	return b.catcher.RedirectURI()
}

// OpenAuthSession opens authURL in the system browser and blocks until the
// catcher captures the redirect, the flow fails, or ctx is cancelled.
// Cancellation maps to a cancel result rather than an error; the caller
// decides what an aborted sign-in means.
func (b *Browser) OpenAuthSession(ctx context.Context, authURL string) (driven.BrowserResult, error) {
	if err := OpenBrowser(authURL); err != nil {
		return driven.BrowserResult{Type: driven.BrowserOther}, fmt.Errorf("failed to open browser: %w", err)
	}

	select {
	case uri := <-b.catcher.urlChan:
		return driven.BrowserResult{Type: driven.BrowserSuccess, URL: uri}, nil
	case err := <-b.catcher.errChan:
		logger.Warn("Auth session failed: %v", err)
		return driven.BrowserResult{Type: driven.BrowserOther}, nil
	case <-ctx.Done():
		return driven.BrowserResult{Type: driven.BrowserCancel}, nil
	}
}

// OpenBrowser opens the given URL in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
