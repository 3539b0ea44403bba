package domain

// Session is the identity-provider session established by a token exchange
// or restored at startup. The token pair is owned by the identity client;
// the rest of the core only observes presence and the user identity.
type Session struct {
	// AccessToken is the primary session bearer token.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to re-establish an expired session.
	RefreshToken string `json:"refresh_token"`
	// UserID is the identity provider's user identifier.
	UserID string `json:"user_id"`
	// Email is the account email reported by the provider.
	Email string `json:"email,omitempty"`
}

// AuthEvent identifies a change in the identity client's internal state.
type AuthEvent string

const (
	// AuthEventInitialSession is emitted once when the persisted session
	// restore resolves at startup, present or not.
	AuthEventInitialSession AuthEvent = "INITIAL_SESSION"
	// AuthEventSignedIn is emitted when a session is established.
	AuthEventSignedIn AuthEvent = "SIGNED_IN"
	// AuthEventSignedOut is emitted when the session is destroyed.
	AuthEventSignedOut AuthEvent = "SIGNED_OUT"
	// AuthEventTokenRefreshed is emitted when the session tokens rotate.
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// AuthStatus is the reconciled session state.
type AuthStatus string

const (
	// AuthUnknown holds only while the initial restoration read is in
	// flight. Consumers must not render an authentication decision yet.
	AuthUnknown AuthStatus = "unknown"
	// AuthAbsent means no session is present.
	AuthAbsent AuthStatus = "absent"
	// AuthPresent means a session is present for UserID.
	AuthPresent AuthStatus = "present"
)

// AuthState is the folded session state delivered to subscribers.
type AuthState struct {
	Status AuthStatus
	UserID string
	Email  string
}

// Present returns true if a session is established.
func (s AuthState) Present() bool {
	return s.Status == AuthPresent
}

// AuthChange is one transition delivered to each subscriber, in fold order.
type AuthChange struct {
	Event AuthEvent
	State AuthState
}
