package driving

import (
	"context"
	"encoding/json"
)

// AccountService covers account-level operations outside the extraction
// workflow.
type AccountService interface {
	// SignOut deletes both provider credential keys from the vault
	// (explicitly, one by one) and then destroys the identity session.
	SignOut(ctx context.Context) error

	// DebugUser returns the server's diagnostic view of the signed-in
	// user as raw JSON.
	DebugUser(ctx context.Context) (json.RawMessage, error)
}
