// Package steamhistory is a client for the SteamHistory reputation API,
// which tracks community ban lists per account.
package steamhistory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://steamhistory.net"

type Client struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	apiCallCount int64
	apiCallMutex sync.Mutex
}

// Ban is one entry on a community ban list. Expires is nil for permanent
// bans still in force.
type Ban struct {
	Created      int64  `json:"created"`
	Expires      *int64 `json:"expires"`
	Reason       string `json:"reason"`
	ListName     string `json:"list"`
	Organisation string `json:"organisation"`
}

// Record is the reputation snapshot for one account.
type Record struct {
	ReputationPoints float64 `json:"reputationPoints"`
	RiskRating       string  `json:"riskRating"`
	ActiveBans       []Ban   `json:"currentBans"`
	ExpiredBans      []Ban   `json:"previousBans"`
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero
func (c *Client) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

// GetReputation fetches the reputation record for a SteamID64. A nil record
// with a nil error means the account has no record at all.
func (c *Client) GetReputation(ctx context.Context, steamID string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/api/v1/reputation/%s?key=%s", c.baseURL, url.PathEscape(steamID), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Increment API call counter
	c.IncrementAPICall()

	log.Debug().
		Str("steam_id", steamID).
		Msg("Making reputation API request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Int("status_code", resp.StatusCode).
		Str("content_type", resp.Header.Get("Content-Type")).
		Msg("Received reputation API response")

	if resp.StatusCode == http.StatusNotFound {
		log.Debug().
			Str("steam_id", steamID).
			Msg("No reputation record for account")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Debug().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Msg("Non-200 response from reputation API")
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &record, nil
}
