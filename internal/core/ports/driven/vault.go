package driven

import "context"

// CredentialVault is a scoped key/value secret store. Values are opaque
// strings, durable across process restarts and scoped to this device.
//
// Keys have independent lifetimes; the vault offers no transactional
// semantics across keys. A crash between two writes is possible and callers
// must tolerate one key existing without the other.
type CredentialVault interface {
	// Set stores a value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Get retrieves the value for key. A missing key returns ok=false and
	// no error; the error return is reserved for an unreadable store.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
