package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driving"
)

const redirectWithProvider = "itsunani://#access_token=at-1&refresh_token=rt-1&provider_token=pt-1&provider_refresh_token=prt-1"

func TestHandleRedirect_StoresSessionAndProviderToken(t *testing.T) {
	identity := &mockIdentity{}
	vault := newMockVault()
	exchanger := NewRedirectExchanger(identity, vault)

	outcome, err := exchanger.HandleRedirect(context.Background(), redirectWithProvider)

	require.NoError(t, err)
	assert.Equal(t, 1, identity.setSessionCalls)
	assert.Equal(t, "user-1", outcome.Session.UserID)
	assert.True(t, outcome.ProviderTokenPresent)
	assert.True(t, outcome.ProviderTokenStored)
	assert.False(t, outcome.Duplicate)
	assert.Equal(t, "pt-1", vault.values[domain.VaultKeyProviderToken])
	assert.Equal(t, "prt-1", vault.values[domain.VaultKeyProviderRefreshToken])
	assert.Equal(t, StateComplete, exchanger.State())
}

func TestHandleRedirect_MalformedURIMakesNoExchangeCall(t *testing.T) {
	identity := &mockIdentity{}
	exchanger := NewRedirectExchanger(identity, newMockVault())

	tests := []struct {
		name string
		uri  string
	}{
		{"no fragment", "itsunani://"},
		{"empty fragment", "itsunani://#"},
		{"missing access token", "itsunani://#refresh_token=rt-1"},
		{"missing refresh token", "itsunani://#access_token=at-1"},
		{"tokens in query not fragment", "itsunani://?access_token=at-1&refresh_token=rt-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := exchanger.HandleRedirect(context.Background(), tt.uri)

			assert.ErrorIs(t, err, domain.ErrMalformedRedirect)
			assert.Nil(t, outcome)
			assert.Equal(t, 0, identity.setSessionCalls)
			assert.Equal(t, StateFailed, exchanger.State())
		})
	}
}

func TestHandleRedirect_NoProviderTokenStillEstablishesSession(t *testing.T) {
	identity := &mockIdentity{}
	vault := newMockVault()
	exchanger := NewRedirectExchanger(identity, vault)

	outcome, err := exchanger.HandleRedirect(context.Background(),
		"itsunani://#access_token=at-1&refresh_token=rt-1")

	require.NoError(t, err)
	assert.False(t, outcome.ProviderTokenPresent)
	assert.False(t, outcome.ProviderTokenStored)
	assert.Empty(t, vault.values)
	assert.Equal(t, StateComplete, exchanger.State())
}

func TestHandleRedirect_DuplicateDeliveryExchangesOnce(t *testing.T) {
	identity := &mockIdentity{}
	vault := newMockVault()
	exchanger := NewRedirectExchanger(identity, vault)

	first, err := exchanger.HandleRedirect(context.Background(), redirectWithProvider)
	require.NoError(t, err)

	second, err := exchanger.HandleRedirect(context.Background(), redirectWithProvider)
	require.NoError(t, err)

	assert.Equal(t, 1, identity.setSessionCalls)
	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Session.UserID, second.Session.UserID)
}

func TestHandleRedirect_DuplicateWaitsForInFlightExchange(t *testing.T) {
	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	identity := &mockIdentity{setSessionGate: gate, setSessionStarted: started}
	exchanger := NewRedirectExchanger(identity, newMockVault())

	type reply struct {
		outcome *driving.ExchangeOutcome
		err     error
	}
	firstCh := make(chan reply, 1)
	secondCh := make(chan reply, 1)

	go func() {
		o, err := exchanger.HandleRedirect(context.Background(), redirectWithProvider)
		firstCh <- reply{o, err}
	}()
	<-started
	// The browser return delivers the same redirect while the listener's
	// exchange is still in flight.
	go func() {
		o, err := exchanger.HandleRedirect(context.Background(), redirectWithProvider)
		secondCh <- reply{o, err}
	}()
	close(gate)

	first := <-firstCh
	second := <-secondCh

	require.NoError(t, first.err)
	require.NoError(t, second.err)
	assert.Equal(t, 1, identity.setSessionCalls)
	require.NotNil(t, second.outcome.Session)
	assert.Equal(t, first.outcome.Session.UserID, second.outcome.Session.UserID)
	assert.True(t, second.outcome.Duplicate)
}

func TestHandleRedirect_DuplicateOfFailedAttemptReplaysError(t *testing.T) {
	identity := &mockIdentity{setSessionErr: errors.New("invalid token pair")}
	exchanger := NewRedirectExchanger(identity, newMockVault())

	_, err := exchanger.HandleRedirect(context.Background(), redirectWithProvider)
	require.ErrorIs(t, err, domain.ErrProviderAuth)

	_, err = exchanger.HandleRedirect(context.Background(), redirectWithProvider)
	assert.ErrorIs(t, err, domain.ErrProviderAuth)
	assert.Equal(t, 1, identity.setSessionCalls)
}

func TestHandleRedirect_ResetOpensNewAttemptWindow(t *testing.T) {
	identity := &mockIdentity{}
	exchanger := NewRedirectExchanger(identity, newMockVault())

	_, err := exchanger.HandleRedirect(context.Background(), redirectWithProvider)
	require.NoError(t, err)

	exchanger.Reset()
	assert.Equal(t, StateIdle, exchanger.State())

	_, err = exchanger.HandleRedirect(context.Background(), redirectWithProvider)
	require.NoError(t, err)
	assert.Equal(t, 2, identity.setSessionCalls)
}

func TestHandleRedirect_PersistFailureKeepsSession(t *testing.T) {
	identity := &mockIdentity{}
	vault := newMockVault()
	vault.setErr = errors.New("disk full")
	exchanger := NewRedirectExchanger(identity, vault)

	outcome, err := exchanger.HandleRedirect(context.Background(), redirectWithProvider)

	require.NoError(t, err)
	assert.NotNil(t, outcome.Session)
	assert.True(t, outcome.ProviderTokenPresent)
	assert.False(t, outcome.ProviderTokenStored)
	assert.Equal(t, StateComplete, exchanger.State())
}

func TestSignIn_SuccessFeedsRedirectIntoExchange(t *testing.T) {
	identity := &mockIdentity{}
	vault := newMockVault()
	exchanger := NewRedirectExchanger(identity, vault)
	browser := &mockBrowser{
		result: driven.BrowserResult{Type: driven.BrowserSuccess, URL: redirectWithProvider},
	}

	outcome, err := exchanger.SignIn(context.Background(), browser)

	require.NoError(t, err)
	assert.Contains(t, browser.authURL, "redirect_to=http://127.0.0.1:8740/")
	assert.Equal(t, "user-1", outcome.Session.UserID)
	assert.True(t, outcome.ProviderTokenStored)
}

func TestSignIn_CancelResetsWithoutSideEffects(t *testing.T) {
	identity := &mockIdentity{}
	vault := newMockVault()
	exchanger := NewRedirectExchanger(identity, vault)
	browser := &mockBrowser{result: driven.BrowserResult{Type: driven.BrowserCancel}}

	outcome, err := exchanger.SignIn(context.Background(), browser)

	assert.ErrorIs(t, err, domain.ErrSignInCancelled)
	assert.Nil(t, outcome)
	assert.Equal(t, 0, identity.setSessionCalls)
	assert.Empty(t, vault.values)
	assert.Equal(t, StateIdle, exchanger.State())
}

func TestSignIn_OtherOutcomeFails(t *testing.T) {
	exchanger := NewRedirectExchanger(&mockIdentity{}, newMockVault())
	browser := &mockBrowser{result: driven.BrowserResult{Type: driven.BrowserOther}}

	_, err := exchanger.SignIn(context.Background(), browser)

	assert.ErrorIs(t, err, domain.ErrProviderAuth)
	assert.Equal(t, StateFailed, exchanger.State())
}
