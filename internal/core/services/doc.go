// Package services implements the core business logic: the session
// reconciler, the redirect token exchanger, the extraction-save
// orchestrator and the account service. Services depend on driven ports
// only and are exposed through the driving port interfaces.
package services
