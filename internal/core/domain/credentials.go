package domain

// Well-known Credential Vault keys for the calendar provider tokens.
// The two keys have independent lifetimes: deleting one never implies
// deleting the other, so sign-out must delete both explicitly.
const (
	// VaultKeyProviderToken stores the calendar provider access token.
	VaultKeyProviderToken = "google_provider_token"
	// VaultKeyProviderRefreshToken stores the optional refresh token.
	VaultKeyProviderRefreshToken = "google_provider_refresh_token"
)

// ProviderCredential is the secondary OAuth credential for the calendar
// provider. It exists independently of the primary Session: a valid session
// does not imply a valid provider credential, and all four presence/absence
// combinations are reachable.
type ProviderCredential struct {
	// AccessToken is the provider bearer token. Required.
	AccessToken string `json:"access_token"`
	// RefreshToken is optional. A missing refresh token is acceptable
	// degraded state, never a hard failure.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Valid returns true if the credential can be used for a save call.
func (c ProviderCredential) Valid() bool {
	return c.AccessToken != ""
}
