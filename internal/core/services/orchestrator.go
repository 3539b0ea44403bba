package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driving"
	"github.com/itsunani-labs/itsunani-cli/internal/logger"
)

// Ensure ExtractionOrchestrator implements the interface.
var _ driving.EventOrchestrator = (*ExtractionOrchestrator)(nil)

// pendingExtractionKey is the vault row holding the retained extraction as
// JSON, so a save-only retry survives across process restarts.
const pendingExtractionKey = "pending_extraction"

// ExtractionOrchestrator drives the two-phase extract-then-save workflow:
// extract the event, resolve the provider credential from the vault, save
// to the calendar, keeping the quota counter current throughout. A
// successful extraction is written through to the vault until its save
// lands, so each CLI invocation starts from the durable copy.
type ExtractionOrchestrator struct {
	api     driven.ExtractionAPI
	vault   driven.CredentialVault
	quota   driven.QuotaReader
	monitor driving.SessionMonitor

	mu        sync.Mutex
	pending   *domain.ExtractionResult
	lastQuota int
	hasQuota  bool
}

// NewExtractionOrchestrator creates a new orchestrator.
func NewExtractionOrchestrator(
	api driven.ExtractionAPI,
	vault driven.CredentialVault,
	quota driven.QuotaReader,
	monitor driving.SessionMonitor,
) *ExtractionOrchestrator {
	return &ExtractionOrchestrator{
		api:     api,
		vault:   vault,
		quota:   quota,
		monitor: monitor,
	}
}

// ExtractAndSave validates input, extracts, resolves the credential and
// saves. Not idempotent: every call consumes one unit of quota server-side
// and produces a new extraction identifier, so callers must not auto-retry
// the extraction without user intent.
func (o *ExtractionOrchestrator) ExtractAndSave(ctx context.Context, input domain.ExtractionInput) (*driving.SaveOutcome, error) {
	// Fail fast on bad local input; no network call is made.
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("%w: provide exactly one of image or text", domain.ErrInvalidInput)
	}

	state := o.monitor.Current()
	if !state.Present() {
		return nil, fmt.Errorf("%w: not signed in", domain.ErrInvalidInput)
	}

	logger.Section("Extract Event")
	logger.Debug("Extracting for user %s", state.UserID)

	// Phase 1: extract. A success has consumed quota server-side, so the
	// updated count is published before anything else can fail.
	result, err := o.api.ExtractEvent(ctx, driven.ExtractionRequest{
		UserID:      state.UserID,
		ImageBase64: input.ImageBase64,
		Text:        input.Text,
	})
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.pending = result
	o.lastQuota = result.RemainingQuota
	o.hasQuota = true
	o.mu.Unlock()
	o.persistPending(ctx, result)

	logger.Info("Extracted %q (extraction %s, %d remaining)",
		result.Event.Title, result.ExtractionID, result.RemainingQuota)

	return o.save(ctx, state.UserID, result)
}

// RetrySave repeats the credential and save phases for the retained
// extraction. Safe to call repeatedly: the remote deduplicates the calendar
// write on the extraction identifier.
func (o *ExtractionOrchestrator) RetrySave(ctx context.Context) (*driving.SaveOutcome, error) {
	pending := o.loadPending(ctx)
	if pending == nil {
		return nil, domain.ErrNoPendingSave
	}

	state := o.monitor.Current()
	if !state.Present() {
		return nil, fmt.Errorf("%w: not signed in", domain.ErrInvalidInput)
	}

	logger.Section("Retry Save")
	return o.save(ctx, state.UserID, pending)
}

// save runs phases 2 and 3 for an extraction result.
func (o *ExtractionOrchestrator) save(ctx context.Context, userID string, result *domain.ExtractionResult) (*driving.SaveOutcome, error) {
	// Phase 2: resolve the provider credential. Absence is terminal for
	// this call and requires a full sign-out/sign-in, not a refresh. An
	// unreadable vault is reported the same way to the user but logged as
	// a storage problem.
	token, _, err := o.vault.Get(ctx, domain.VaultKeyProviderToken)
	if err != nil {
		logger.Warn("Credential vault unreadable: %v", err)
		return nil, fmt.Errorf("%w: vault unreadable", domain.ErrProviderCredentialMissing)
	}

	// A missing refresh token is acceptable degraded state (a crash
	// between the two vault writes is tolerated), never a hard failure.
	refreshToken, _, err := o.vault.Get(ctx, domain.VaultKeyProviderRefreshToken)
	if err != nil {
		logger.Debug("Provider refresh token unreadable: %v", err)
		refreshToken = ""
	}

	cred := domain.ProviderCredential{AccessToken: token, RefreshToken: refreshToken}
	if !cred.Valid() {
		logger.Warn("No provider token in vault; extraction %s retained", result.ExtractionID)
		return nil, domain.ErrProviderCredentialMissing
	}

	// Phase 3: save. 401 means the remote rejected the stored token
	// (remote revocation); anything else is a generic save failure. Both
	// retain the extraction for a save-only retry.
	err = o.api.SaveToCalendar(ctx, driven.SaveRequest{
		UserID:               userID,
		ExtractionID:         result.ExtractionID,
		Event:                result.Event,
		ProviderToken:        cred.AccessToken,
		ProviderRefreshToken: cred.RefreshToken,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			logger.Warn("Stored provider token rejected by remote: %v", err)
		} else {
			logger.Warn("Save failed, extraction %s retained: %v", result.ExtractionID, err)
		}
		return nil, err
	}

	o.mu.Lock()
	o.pending = nil
	o.mu.Unlock()
	if err := o.vault.Delete(ctx, pendingExtractionKey); err != nil {
		logger.Warn("Retained extraction not cleared: %v", err)
	}

	logger.Info("Event %q saved to calendar", result.Event.Title)

	// Refresh the quota after a full success. The server already answered
	// with the post-extraction count, so a failed read falls back to it.
	quota, err := o.RefreshQuota(ctx)
	if err != nil {
		logger.Debug("Quota refresh failed, keeping extraction count: %v", err)
		quota = result.RemainingQuota
	}

	return &driving.SaveOutcome{Event: result.Event, RemainingQuota: quota}, nil
}

// persistPending writes the retained extraction through to the vault.
// Best-effort: a write failure degrades retry to this process's lifetime.
func (o *ExtractionOrchestrator) persistPending(ctx context.Context, result *domain.ExtractionResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		logger.Warn("Retained extraction not encodable: %v", err)
		return
	}
	if err := o.vault.Set(ctx, pendingExtractionKey, string(raw)); err != nil {
		logger.Warn("Retained extraction not persisted: %v", err)
	}
}

// loadPending returns the retained extraction, falling back to the durable
// copy when this process has not extracted anything itself.
func (o *ExtractionOrchestrator) loadPending(ctx context.Context) *domain.ExtractionResult {
	o.mu.Lock()
	if o.pending != nil {
		cp := *o.pending
		o.mu.Unlock()
		return &cp
	}
	o.mu.Unlock()

	raw, ok, err := o.vault.Get(ctx, pendingExtractionKey)
	if err != nil {
		logger.Warn("Retained extraction unreadable: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	var result domain.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		logger.Warn("Discarding undecodable retained extraction: %v", err)
		_ = o.vault.Delete(ctx, pendingExtractionKey)
		return nil
	}

	o.mu.Lock()
	o.pending = &result
	if !o.hasQuota {
		o.lastQuota = result.RemainingQuota
		o.hasQuota = true
	}
	o.mu.Unlock()
	return &result
}

// Pending returns the retained extraction, if any.
func (o *ExtractionOrchestrator) Pending() (*domain.ExtractionResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return nil, false
	}
	cp := *o.pending
	return &cp, true
}

// Cancel discards the retained extraction, durable copy included.
func (o *ExtractionOrchestrator) Cancel() {
	o.mu.Lock()
	o.pending = nil
	o.mu.Unlock()
	if err := o.vault.Delete(context.Background(), pendingExtractionKey); err != nil {
		logger.Warn("Retained extraction not cleared: %v", err)
	}
}

// RemainingQuota returns the last observed quota.
func (o *ExtractionOrchestrator) RemainingQuota() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastQuota, o.hasQuota
}

// RefreshQuota re-reads the quota from the server and caches it.
func (o *ExtractionOrchestrator) RefreshQuota(ctx context.Context) (int, error) {
	state := o.monitor.Current()
	if !state.Present() {
		return 0, fmt.Errorf("%w: not signed in", domain.ErrInvalidInput)
	}

	quota, err := o.quota.TrialEventsRemaining(ctx, state.UserID)
	if err != nil {
		return 0, fmt.Errorf("read quota: %w", err)
	}

	o.mu.Lock()
	o.lastQuota = quota
	o.hasQuota = true
	o.mu.Unlock()
	return quota, nil
}
