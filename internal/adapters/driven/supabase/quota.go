package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.QuotaReader = (*Client)(nil)

// TrialEventsRemaining reads the user's remaining extraction quota from the
// profiles table through the provider's REST surface.
func (c *Client) TrialEventsRemaining(ctx context.Context, userID string) (int, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/profiles?id=eq.%s&select=trial_events_remaining",
		c.baseURL, url.QueryEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	accessToken := ""
	if session := c.CurrentSession(); session != nil {
		accessToken = session.AccessToken
	}
	c.setAuthHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("profile request failed with status %d", resp.StatusCode)
	}

	var profiles []struct {
		TrialEventsRemaining int `json:"trial_events_remaining"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
		return 0, fmt.Errorf("decode profile: %w", err)
	}
	if len(profiles) == 0 {
		return 0, fmt.Errorf("%w: no profile for user %s", domain.ErrNotFound, userID)
	}

	return profiles[0].TrialEventsRemaining, nil
}
