// Package api is the HTTP client for the Itsunani extraction and
// calendar-save collaborators. Remote failures are mapped onto the domain
// error taxonomy with the remote message preserved verbatim.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ExtractionAPI = (*Client)(nil)

// Conservative client-side rate limit; the server enforces the real quota.
const (
	requestsPerSecond = 2.0
	burstSize         = 4
)

// Client is the extraction API HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}
}

// extractRequest is the wire form of an extraction call. Absent inputs are
// sent as JSON null, matching the server contract.
type extractRequest struct {
	UserID      string  `json:"userId"`
	ImageBase64 *string `json:"imageBase64"`
	Text        *string `json:"text"`
}

// ExtractEvent performs the extraction phase.
func (c *Client) ExtractEvent(ctx context.Context, req driven.ExtractionRequest) (*domain.ExtractionResult, error) {
	wire := extractRequest{UserID: req.UserID}
	if req.ImageBase64 != "" {
		wire.ImageBase64 = &req.ImageBase64
	}
	if req.Text != "" {
		wire.Text = &req.Text
	}

	resp, err := c.post(ctx, "/api/extract-event", wire)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFailed, decodeErrorMessage(resp))
	}

	var result domain.ExtractionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	return &result, nil
}

// saveRequest is the wire form of a calendar-save call.
type saveRequest struct {
	UserID               string               `json:"userId"`
	ExtractionID         string               `json:"extractionId"`
	Event                domain.CalendarEvent `json:"event"`
	ProviderToken        string               `json:"providerToken"`
	ProviderRefreshToken string               `json:"providerRefreshToken,omitempty"`
}

// SaveToCalendar performs the save phase. Status 401 is reserved for a
// rejected stored provider credential and maps to ErrSessionExpired; any
// other non-2xx maps to ErrSaveFailed.
func (c *Client) SaveToCalendar(ctx context.Context, req driven.SaveRequest) error {
	wire := saveRequest{
		UserID:               req.UserID,
		ExtractionID:         req.ExtractionID,
		Event:                req.Event,
		ProviderToken:        req.ProviderToken,
		ProviderRefreshToken: req.ProviderRefreshToken,
	}

	resp, err := c.post(ctx, "/api/save-to-calendar", wire)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrSessionExpired, decodeErrorMessage(resp))
	default:
		return fmt.Errorf("%w: %s", domain.ErrSaveFailed, decodeErrorMessage(resp))
	}
}

// DebugUser fetches the server's diagnostic view of the user.
func (c *Client) DebugUser(ctx context.Context, userID string) (json.RawMessage, error) {
	resp, err := c.post(ctx, "/api/debug-user", map[string]string{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("debug request failed: %s", decodeErrorMessage(resp))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read debug response: %w", err)
	}
	return json.RawMessage(raw), nil
}

// post sends a JSON request, honouring the client-side rate limit.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	return resp, nil
}

// decodeErrorMessage extracts the remote error message from a failure body,
// falling back to the HTTP status.
func decodeErrorMessage(resp *http.Response) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}
