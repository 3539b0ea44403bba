// Package driving defines the inbound ports of the core: the contracts the
// CLI (or any other UI layer) programs against.
package driving
