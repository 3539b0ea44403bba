package redirect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
)

func startCatcher(t *testing.T) *Catcher {
	t.Helper()
	catcher := NewCatcher(0, "itsunani")
	require.NoError(t, catcher.Start())
	t.Cleanup(func() { catcher.Stop() })
	return catcher
}

func TestCatcher_RelayPageForwardsFragment(t *testing.T) {
	catcher := startCatcher(t)

	resp, err := http.Get(catcher.RedirectURI())
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "window.location.hash")
	assert.Contains(t, string(body), "/complete?state="+catcher.state)
}

func TestCatcher_CompleteReassemblesAppSchemeURI(t *testing.T) {
	catcher := startCatcher(t)

	completeURL := fmt.Sprintf("%scomplete?state=%s&access_token=at&refresh_token=rt&provider_token=pt",
		catcher.RedirectURI(), catcher.state)
	resp, err := http.Get(completeURL)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	uri, err := catcher.Wait(ctx)
	require.NoError(t, err)

	tokens, err := domain.ParseRedirectURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "at", tokens.AccessToken)
	assert.Equal(t, "rt", tokens.RefreshToken)
	assert.Equal(t, "pt", tokens.ProviderToken)
}

func TestCatcher_DeliversToCallbackAndWait(t *testing.T) {
	catcher := NewCatcher(0, "itsunani")

	var mu sync.Mutex
	var callbackURI string
	done := make(chan struct{})
	catcher.OnRedirect = func(uri string) {
		mu.Lock()
		callbackURI = uri
		mu.Unlock()
		close(done)
	}
	require.NoError(t, catcher.Start())
	defer catcher.Stop()

	completeURL := fmt.Sprintf("%scomplete?state=%s&access_token=at&refresh_token=rt",
		catcher.RedirectURI(), catcher.state)
	resp, err := http.Get(completeURL)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	waited, err := catcher.Wait(ctx)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, waited, callbackURI)
}

func TestCatcher_RejectsWrongState(t *testing.T) {
	catcher := startCatcher(t)

	completeURL := fmt.Sprintf("%scomplete?state=wrong&access_token=at&refresh_token=rt",
		catcher.RedirectURI())
	resp, err := http.Get(completeURL)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = catcher.Wait(ctx)
	assert.ErrorContains(t, err, "state mismatch")
}

func TestCatcher_WaitHonoursContext(t *testing.T) {
	catcher := startCatcher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := catcher.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCatcher_PicksRandomPortWhenZero(t *testing.T) {
	catcher := startCatcher(t)
	assert.NotZero(t, catcher.Port())
	assert.Contains(t, catcher.RedirectURI(), fmt.Sprintf(":%d/", catcher.Port()))
}

func TestFindAvailablePort(t *testing.T) {
	port, err := FindAvailablePort(8740, 8760)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, 8740)
	assert.LessOrEqual(t, port, 8760)
}
