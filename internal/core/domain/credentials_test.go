package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderCredential_Valid(t *testing.T) {
	assert.False(t, ProviderCredential{}.Valid())
	assert.False(t, ProviderCredential{RefreshToken: "prt"}.Valid())
	assert.True(t, ProviderCredential{AccessToken: "pt"}.Valid())
	assert.True(t, ProviderCredential{AccessToken: "pt", RefreshToken: "prt"}.Valid())
}
