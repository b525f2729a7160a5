// Package steam is a client for the Steam Web API endpoints this tool needs:
// owned games, recently played games, vanity URL resolution and player
// summaries.
package steam

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

const DefaultBaseURL = "https://api.steampowered.com"

type Client struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	summaryCache sync.Map
	apiCallCount int64
	apiCallMutex sync.Mutex
}

// Game is one title from an ownership or recent-activity response. Playtimes
// are minutes. Playtime2Weeks is absent when there was no recent activity.
type Game struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
	Playtime2Weeks  *int   `json:"playtime_2weeks,omitempty"`
}

type OwnedGames struct {
	GameCount int    `json:"game_count"`
	Games     []Game `json:"games"`
}

type PlayerSummary struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	ProfileURL  string `json:"profileurl"`
	Visibility  int    `json:"communityvisibilitystate"`
}

type cachedSummary struct {
	summary   *PlayerSummary
	timestamp time.Time
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

// GetOwnedGames returns every title the account owns, playtimes in minutes.
// Free-to-play titles with playtime are included.
func (c *Client) GetOwnedGames(ctx context.Context, steamID string) (*OwnedGames, error) {
	endpoint := fmt.Sprintf("%s/IPlayerService/GetOwnedGames/v1/?key=%s&steamid=%s&include_played_free_games=1&format=json",
		c.baseURL, c.apiKey, url.QueryEscape(steamID))

	var result struct {
		Response OwnedGames `json:"response"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result.Response, nil
}

// GetRecentlyPlayedGames returns titles played in the last two weeks.
func (c *Client) GetRecentlyPlayedGames(ctx context.Context, steamID string) (*OwnedGames, error) {
	endpoint := fmt.Sprintf("%s/IPlayerService/GetRecentlyPlayedGames/v1/?key=%s&steamid=%s&format=json",
		c.baseURL, c.apiKey, url.QueryEscape(steamID))

	var result struct {
		Response OwnedGames `json:"response"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result.Response, nil
}

// ResolveVanityURL resolves a community vanity name to a SteamID64.
func (c *Client) ResolveVanityURL(ctx context.Context, vanityName string) (string, error) {
	endpoint := fmt.Sprintf("%s/ISteamUser/ResolveVanityURL/v1/?key=%s&vanityurl=%s",
		c.baseURL, c.apiKey, url.QueryEscape(vanityName))

	var result struct {
		Response struct {
			Success int    `json:"success"`
			SteamID string `json:"steamid"`
			Message string `json:"message"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return "", err
	}
	if result.Response.Success != 1 {
		return "", fmt.Errorf("vanity name %q not found", vanityName)
	}
	return result.Response.SteamID, nil
}

// GetPlayerSummary returns the public profile for one account. Responses are
// cached for an hour.
func (c *Client) GetPlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	if cached, ok := c.summaryCache.Load(steamID); ok {
		entry := cached.(cachedSummary)
		if time.Since(entry.timestamp) < time.Hour {
			return entry.summary, nil
		}
	}

	endpoint := fmt.Sprintf("%s/ISteamUser/GetPlayerSummaries/v2/?key=%s&steamids=%s",
		c.baseURL, c.apiKey, url.QueryEscape(steamID))

	var result struct {
		Response struct {
			Players []PlayerSummary `json:"players"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	if len(result.Response.Players) == 0 {
		return nil, fmt.Errorf("player %s not found", steamID)
	}
	summary := result.Response.Players[0]

	c.summaryCache.Store(steamID, cachedSummary{
		summary:   &summary,
		timestamp: time.Now(),
	})

	return &summary, nil
}

// WhoAmI validates the configured API key by resolving the given probe
// profile; an invalid key yields a 403 from the API.
func (c *Client) WhoAmI(ctx context.Context, probeSteamID string) (string, error) {
	summary, err := c.GetPlayerSummary(ctx, probeSteamID)
	if err != nil {
		return "", err
	}
	return summary.PersonaName, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Increment API call counter
	c.IncrementAPICall()

	// The query string carries the API key, so only the path is logged.
	log.Debug().
		Str("path", req.URL.Path).
		Msg("Making Steam API request")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Int("status_code", resp.StatusCode).
		Str("content_type", resp.Header.Get("Content-Type")).
		Msg("Received Steam API response")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Debug().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Msg("Non-200 response from Steam API")
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
