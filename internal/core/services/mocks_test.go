package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
)

// mockIdentity implements driven.IdentityClient for testing.
type mockIdentity struct {
	mu sync.Mutex

	setSessionCalls int
	setSessionErr   error
	session         *domain.Session

	// setSessionGate, when set, holds SetSession open until released;
	// setSessionStarted observes the call being entered.
	setSessionGate    chan struct{}
	setSessionStarted chan struct{}

	restoreSession *domain.Session
	restoreErr     error

	signOutCalls int
	signOutErr   error

	callbacks []func(domain.AuthEvent, *domain.Session)
}

func (m *mockIdentity) AuthorizeURL(redirectTo string) string {
	return "https://example.test/auth/v1/authorize?redirect_to=" + redirectTo
}

func (m *mockIdentity) SetSession(_ context.Context, access, refresh string) (*domain.Session, error) {
	if m.setSessionStarted != nil {
		select {
		case m.setSessionStarted <- struct{}{}:
		default:
		}
	}
	if m.setSessionGate != nil {
		<-m.setSessionGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setSessionCalls++
	if m.setSessionErr != nil {
		return nil, m.setSessionErr
	}
	if m.session != nil {
		return m.session, nil
	}
	return &domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       "user-1",
		Email:        "user@example.test",
	}, nil
}

func (m *mockIdentity) RestoreSession(_ context.Context) (*domain.Session, error) {
	return m.restoreSession, m.restoreErr
}

func (m *mockIdentity) CurrentSession() *domain.Session {
	return m.session
}

func (m *mockIdentity) SignOut(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutCalls++
	return m.signOutErr
}

func (m *mockIdentity) OnAuthStateChange(fn func(domain.AuthEvent, *domain.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
	return func() {}
}

// emit fans an auth event out to registered callbacks, standing in for the
// identity provider pushing a change.
func (m *mockIdentity) emit(event domain.AuthEvent, session *domain.Session) {
	m.mu.Lock()
	callbacks := make([]func(domain.AuthEvent, *domain.Session), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()
	for _, fn := range callbacks {
		fn(event, session)
	}
}

// mockVault implements driven.CredentialVault for testing.
type mockVault struct {
	mu      sync.Mutex
	values  map[string]string
	setErr  error
	getErr  error
	deleted []string
}

func newMockVault() *mockVault {
	return &mockVault{values: make(map[string]string)}
}

func (m *mockVault) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockVault) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *mockVault) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// mockAPI implements driven.ExtractionAPI for testing.
type mockAPI struct {
	mu sync.Mutex

	extractCalls int
	extractErr   error
	result       *domain.ExtractionResult

	saveCalls int
	saveErr   error
	lastSave  driven.SaveRequest

	debugCalls int
}

func (m *mockAPI) ExtractEvent(_ context.Context, _ driven.ExtractionRequest) (*domain.ExtractionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractCalls++
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.result, nil
}

func (m *mockAPI) SaveToCalendar(_ context.Context, req driven.SaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	m.lastSave = req
	return m.saveErr
}

func (m *mockAPI) DebugUser(_ context.Context, userID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugCalls++
	return json.RawMessage(`{"id":"` + userID + `"}`), nil
}

// mockQuota implements driven.QuotaReader for testing.
type mockQuota struct {
	remaining int
	err       error
	calls     int
}

func (m *mockQuota) TrialEventsRemaining(_ context.Context, _ string) (int, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.remaining, nil
}

// mockMonitor implements driving.SessionMonitor for testing.
type mockMonitor struct {
	state domain.AuthState
}

func (m *mockMonitor) Current() domain.AuthState {
	return m.state
}

func (m *mockMonitor) Subscribe() (<-chan domain.AuthChange, func()) {
	ch := make(chan domain.AuthChange)
	return ch, func() {}
}

func (m *mockMonitor) WaitReady(_ context.Context) error {
	return nil
}

// mockBrowser implements driven.AuthBrowser for testing.
type mockBrowser struct {
	result  driven.BrowserResult
	err     error
	authURL string
}

func (m *mockBrowser) RedirectTo() string {
	return "http://127.0.0.1:8740/"
}

func (m *mockBrowser) OpenAuthSession(_ context.Context, authURL string) (driven.BrowserResult, error) {
	m.authURL = authURL
	return m.result, m.err
}
