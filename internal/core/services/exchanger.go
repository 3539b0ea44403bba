package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driving"
	"github.com/itsunani-labs/itsunani-cli/internal/logger"
)

// Ensure RedirectExchanger implements the interface.
var _ driving.TokenExchanger = (*RedirectExchanger)(nil)

// ExchangeState is the exchanger's position in the redirect state machine.
type ExchangeState string

const (
	// StateIdle means no redirect is being processed.
	StateIdle ExchangeState = "idle"
	// StateParsing means a redirect URI is being decomposed.
	StateParsing ExchangeState = "parsing"
	// StateExchanging means the token pair has been submitted.
	StateExchanging ExchangeState = "exchanging"
	// StatePersisting means the session stands and the provider token is
	// being written to the vault.
	StatePersisting ExchangeState = "persisting"
	// StateComplete means the attempt finished with a session.
	StateComplete ExchangeState = "complete"
	// StateFailed means the attempt terminated without a session.
	StateFailed ExchangeState = "failed"
)

// attemptResult carries the terminal result for an access-token value so a
// duplicate delivery of the same redirect replays it instead of running a
// second exchange. done is closed when outcome and err are final; a
// duplicate arriving earlier waits on it.
type attemptResult struct {
	outcome *driving.ExchangeOutcome
	err     error
	done    chan struct{}
}

// RedirectExchanger consumes redirect URIs and turns them into an
// established session plus a stored provider credential.
//
// The same logical redirect can arrive twice: once through the listener
// channel and once as the return value of the interactive browser call.
// The exchanger deduplicates by access-token value within one attempt
// window: the second delivery waits for the first one's terminal result
// and replays it, never running a second exchange or a second error.
type RedirectExchanger struct {
	identity driven.IdentityClient
	vault    driven.CredentialVault

	mu        sync.Mutex
	state     ExchangeState
	attemptID string
	submitted map[string]*attemptResult
}

// NewRedirectExchanger creates an idle exchanger.
func NewRedirectExchanger(identity driven.IdentityClient, vault driven.CredentialVault) *RedirectExchanger {
	return &RedirectExchanger{
		identity:  identity,
		vault:     vault,
		state:     StateIdle,
		attemptID: uuid.NewString(),
		submitted: make(map[string]*attemptResult),
	}
}

// State returns the current state machine position.
func (e *RedirectExchanger) State() ExchangeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reset clears the attempt window and returns to idle.
func (e *RedirectExchanger) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateIdle
	e.attemptID = uuid.NewString()
	e.submitted = make(map[string]*attemptResult)
}

// HandleRedirect consumes one redirect URI.
//
// Parsing happens first: a missing fragment or a missing primary token is
// terminal for the attempt and no exchange call is made. A parse success
// submits the token pair, then best-effort persists the provider token.
// Persist failures do not roll back the established session but are visible
// in the outcome so a later save can report the credential missing instead
// of failing silently.
func (e *RedirectExchanger) HandleRedirect(ctx context.Context, rawURI string) (*driving.ExchangeOutcome, error) {
	logger.Section("Token Exchange")
	logger.Debug("Redirect received (attempt %s)", e.attemptID)

	e.mu.Lock()
	e.state = StateParsing
	e.mu.Unlock()

	tokens, err := domain.ParseRedirectURI(rawURI)
	if err != nil {
		e.mu.Lock()
		e.state = StateFailed
		e.mu.Unlock()
		logger.Warn("Redirect rejected: %v", err)
		return nil, err
	}

	e.mu.Lock()
	if prior, ok := e.submitted[tokens.AccessToken]; ok {
		e.mu.Unlock()
		logger.Debug("Duplicate redirect for already-submitted token, replaying result")
		// The first delivery may still be mid-exchange; wait for its
		// terminal result rather than inventing an empty one.
		select {
		case <-prior.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		e.mu.Lock()
		if prior.err != nil {
			e.state = StateFailed
		} else {
			e.state = StateComplete
		}
		e.mu.Unlock()
		if prior.err != nil {
			return nil, prior.err
		}
		replay := *prior.outcome
		replay.Duplicate = true
		return &replay, nil
	}
	// Mark as submitted before the exchange so a concurrent duplicate
	// cannot race a second submission of the same pair.
	attempt := &attemptResult{done: make(chan struct{})}
	e.submitted[tokens.AccessToken] = attempt
	e.state = StateExchanging
	e.mu.Unlock()

	outcome, err := e.exchange(ctx, tokens)

	e.mu.Lock()
	attempt.outcome, attempt.err = outcome, err
	if err != nil {
		e.state = StateFailed
	} else {
		e.state = StateComplete
	}
	e.mu.Unlock()
	close(attempt.done)

	return outcome, err
}

// exchange runs the Exchanging and Persisting steps.
func (e *RedirectExchanger) exchange(ctx context.Context, tokens *domain.RedirectTokens) (*driving.ExchangeOutcome, error) {
	session, err := e.identity.SetSession(ctx, tokens.AccessToken, tokens.RefreshToken)
	if err != nil {
		logger.Warn("Session exchange rejected: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderAuth, err)
	}
	logger.Info("Session established for %s", session.UserID)

	outcome := &driving.ExchangeOutcome{
		Session:              session,
		ProviderTokenPresent: tokens.HasProviderToken(),
	}
	if !tokens.HasProviderToken() {
		return outcome, nil
	}

	e.mu.Lock()
	e.state = StatePersisting
	e.mu.Unlock()

	if err := e.vault.Set(ctx, domain.VaultKeyProviderToken, tokens.ProviderToken); err != nil {
		// The session stands; the orchestrator will detect the missing
		// credential and ask for re-authentication.
		logger.Warn("Provider token not persisted: %v", err)
		return outcome, nil
	}
	if tokens.ProviderRefreshToken != "" {
		if err := e.vault.Set(ctx, domain.VaultKeyProviderRefreshToken, tokens.ProviderRefreshToken); err != nil {
			logger.Warn("Provider refresh token not persisted: %v", err)
		}
	}
	outcome.ProviderTokenStored = true
	logger.Debug("Provider token stored")

	return outcome, nil
}

// SignIn runs the full interactive flow. The browser call has three
// disjoint terminal outcomes: success-with-URL feeds HandleRedirect,
// user-cancel resets to idle with no side effects, anything else is an
// error. No timeout is imposed beyond ctx.
func (e *RedirectExchanger) SignIn(ctx context.Context, browser driven.AuthBrowser) (*driving.ExchangeOutcome, error) {
	e.Reset()

	authURL := e.identity.AuthorizeURL(browser.RedirectTo())
	logger.Info("Opening browser for provider auth")
	logger.Debug("Authorize URL: %s", authURL)

	result, err := browser.OpenAuthSession(ctx, authURL)
	if err != nil {
		return nil, fmt.Errorf("open auth session: %w", err)
	}

	switch result.Type {
	case driven.BrowserSuccess:
		return e.HandleRedirect(ctx, result.URL)
	case driven.BrowserCancel:
		e.Reset()
		return nil, domain.ErrSignInCancelled
	default:
		e.mu.Lock()
		e.state = StateFailed
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: browser flow ended without a redirect", domain.ErrProviderAuth)
	}
}
