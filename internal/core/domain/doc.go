// Package domain contains the core business entities for the Itsunani client:
// sessions, provider credentials, redirect tokens, extracted calendar events
// and the error taxonomy shared across services and adapters.
//
// Domain types have no dependencies on adapters or external services.
package domain
