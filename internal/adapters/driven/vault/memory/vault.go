// Package memory provides an in-memory Credential Vault for testing.
package memory

import (
	"context"
	"sync"

	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
)

// Ensure Vault implements the interface.
var _ driven.CredentialVault = (*Vault)(nil)

// Vault is an in-memory implementation of driven.CredentialVault.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string

	// Err, when set, is returned by every operation. Used to simulate an
	// unreadable store in tests.
	Err error
}

// NewVault creates a new in-memory vault.
func NewVault() *Vault {
	return &Vault{
		values: make(map[string]string),
	}
}

// Set stores a value under key.
func (v *Vault) Set(_ context.Context, key, value string) error {
	if v.Err != nil {
		return v.Err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[key] = value
	return nil
}

// Get retrieves the value for key.
func (v *Vault) Get(_ context.Context, key string) (string, bool, error) {
	if v.Err != nil {
		return "", false, v.Err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	value, ok := v.values[key]
	return value, ok, nil
}

// Delete removes key.
func (v *Vault) Delete(_ context.Context, key string) error {
	if v.Err != nil {
		return v.Err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.values, key)
	return nil
}

// Len returns the number of stored secrets.
func (v *Vault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.values)
}
