package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driving"
	"github.com/itsunani-labs/itsunani-cli/internal/logger"
)

// Ensure AccountManager implements the interface.
var _ driving.AccountService = (*AccountManager)(nil)

// AccountManager handles sign-out and account diagnostics.
type AccountManager struct {
	identity driven.IdentityClient
	vault    driven.CredentialVault
	api      driven.ExtractionAPI
	monitor  driving.SessionMonitor
}

// NewAccountManager creates a new account manager.
func NewAccountManager(
	identity driven.IdentityClient,
	vault driven.CredentialVault,
	api driven.ExtractionAPI,
	monitor driving.SessionMonitor,
) *AccountManager {
	return &AccountManager{
		identity: identity,
		vault:    vault,
		api:      api,
		monitor:  monitor,
	}
}

// SignOut deletes both provider credential keys from the vault and then
// destroys the identity session. The two keys are deleted explicitly, one
// by one: their lifetimes are not coupled and no key implies the other.
func (m *AccountManager) SignOut(ctx context.Context) error {
	logger.Section("Sign Out")

	if err := m.vault.Delete(ctx, domain.VaultKeyProviderToken); err != nil {
		logger.Warn("Provider token delete failed: %v", err)
	}
	if err := m.vault.Delete(ctx, domain.VaultKeyProviderRefreshToken); err != nil {
		logger.Warn("Provider refresh token delete failed: %v", err)
	}

	if err := m.identity.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	logger.Info("Signed out")
	return nil
}

// DebugUser returns the server's diagnostic view of the signed-in user.
func (m *AccountManager) DebugUser(ctx context.Context) (json.RawMessage, error) {
	state := m.monitor.Current()
	if !state.Present() {
		return nil, fmt.Errorf("%w: not signed in", domain.ErrInvalidInput)
	}
	return m.api.DebugUser(ctx, state.UserID)
}
