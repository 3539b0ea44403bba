package domain

import (
	"fmt"
	"net/url"
)

// Fragment parameter names carried by the auth redirect URI.
const (
	fragmentAccessToken          = "access_token"
	fragmentRefreshToken         = "refresh_token"
	fragmentProviderToken        = "provider_token"
	fragmentProviderRefreshToken = "provider_refresh_token"
)

// RedirectTokens are the bearer tokens extracted from a redirect URI
// fragment. A RedirectTokens value is one-shot: it is consumed by a single
// exchange attempt and never retried.
type RedirectTokens struct {
	// AccessToken and RefreshToken are the primary session tokens.
	// Both are required for a redirect to be well formed.
	AccessToken  string
	RefreshToken string
	// ProviderToken is the secondary calendar provider token. Optional.
	ProviderToken string
	// ProviderRefreshToken accompanies ProviderToken when the provider
	// issued one. Optional.
	ProviderRefreshToken string
}

// HasProviderToken returns true if the redirect carried a provider token.
func (t *RedirectTokens) HasProviderToken() bool {
	return t.ProviderToken != ""
}

// ParseRedirectURI extracts tokens from a redirect URI. The tokens live in
// the fragment as URL-encoded key/value pairs; query-string parameters are
// never consulted. A missing fragment or a missing primary token returns
// ErrMalformedRedirect, terminal for the attempt.
func ParseRedirectURI(raw string) (*RedirectTokens, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRedirect, err)
	}

	if u.Fragment == "" {
		return nil, fmt.Errorf("%w: redirect has no fragment", ErrMalformedRedirect)
	}

	params, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable fragment: %v", ErrMalformedRedirect, err)
	}

	tokens := &RedirectTokens{
		AccessToken:          params.Get(fragmentAccessToken),
		RefreshToken:         params.Get(fragmentRefreshToken),
		ProviderToken:        params.Get(fragmentProviderToken),
		ProviderRefreshToken: params.Get(fragmentProviderRefreshToken),
	}

	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, fmt.Errorf("%w: fragment is missing a primary token", ErrMalformedRedirect)
	}

	return tokens, nil
}
