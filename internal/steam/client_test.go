package steam_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"steam_sheet_enrich/internal/steam"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOwnedGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/IPlayerService/GetOwnedGames/v1/", r.URL.Path)
		assert.Equal(t, "76561198000000001", r.URL.Query().Get("steamid"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"response":{"game_count":2,"games":[
			{"appid":730,"playtime_forever":600,"playtime_2weeks":45},
			{"appid":440,"playtime_forever":10}
		]}}`)
	}))
	defer server.Close()

	client := steam.NewClient("test-key").WithBaseURL(server.URL)
	owned, err := client.GetOwnedGames(context.Background(), "76561198000000001")
	require.NoError(t, err)

	assert.Equal(t, 2, owned.GameCount)
	require.Len(t, owned.Games, 2)
	assert.Equal(t, 730, owned.Games[0].AppID)
	assert.Equal(t, 600, owned.Games[0].PlaytimeForever)
	require.NotNil(t, owned.Games[0].Playtime2Weeks)
	assert.Equal(t, 45, *owned.Games[0].Playtime2Weeks)
	assert.Nil(t, owned.Games[1].Playtime2Weeks, "absent playtime_2weeks stays nil")

	assert.Equal(t, int64(1), client.GetAPICallCount())
}

func TestGetOwnedGamesNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := steam.NewClient("bad-key").WithBaseURL(server.URL)
	_, err := client.GetOwnedGames(context.Background(), "76561198000000001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestResolveVanityURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vanityurl") == "gaben" {
			fmt.Fprint(w, `{"response":{"success":1,"steamid":"76561197960287930"}}`)
			return
		}
		fmt.Fprint(w, `{"response":{"success":42,"message":"No match"}}`)
	}))
	defer server.Close()

	client := steam.NewClient("test-key").WithBaseURL(server.URL)

	steamID, err := client.ResolveVanityURL(context.Background(), "gaben")
	require.NoError(t, err)
	assert.Equal(t, "76561197960287930", steamID)

	_, err = client.ResolveVanityURL(context.Background(), "nobody")
	assert.Error(t, err)
}

func TestGetPlayerSummaryCaches(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"response":{"players":[{"steamid":"76561198000000001","personaname":"tester","communityvisibilitystate":3}]}}`)
	}))
	defer server.Close()

	client := steam.NewClient("test-key").WithBaseURL(server.URL)

	first, err := client.GetPlayerSummary(context.Background(), "76561198000000001")
	require.NoError(t, err)
	assert.Equal(t, "tester", first.PersonaName)

	_, err = client.GetPlayerSummary(context.Background(), "76561198000000001")
	require.NoError(t, err)
	assert.Equal(t, 1, requests, "second lookup is served from cache")
}
