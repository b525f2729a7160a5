// Package processing implements the two row processors fed to the batch
// driver: ownership/playtime enrichment and ban/reputation enrichment.
package processing

import (
	"context"
	"fmt"
	"math"

	"steam_sheet_enrich/internal/retry"
	"steam_sheet_enrich/internal/table"
)

// Field names shared between the processors and their column specs.
const (
	FieldSteamID     = "steam_id"
	FieldOwns        = "owns"
	FieldRecent      = "recent_playtime"
	FieldTotal       = "total_playtime"
	FieldProfile     = "profile"
	FieldHasBans     = "has_bans"
	FieldActiveBans  = "active_bans"
	FieldExpiredBans = "expired_bans"
	FieldPoints      = "reputation_points"
	FieldRisk        = "risk_rating"
)

const profileURLTemplate = "https://steamcommunity.com/profiles/%s"

// MinutesToHours converts raw playtime minutes to hours rounded to one
// decimal place: round(minutes/6)/10.
func MinutesToHours(minutes int) float64 {
	return math.Round(float64(minutes)/6.0) / 10.0
}

// FormatHours renders an hour value the way the sheet displays it, e.g. 2.0.
func FormatHours(hours float64) string {
	return fmt.Sprintf("%.1f", hours)
}

// ProfileURL builds the community profile link for an identifier. Link
// construction never depends on provider success.
func ProfileURL(steamID string) string {
	return fmt.Sprintf(profileURLTemplate, steamID)
}

func errorMarker(err error) string {
	return fmt.Sprintf("ERROR: %v", err)
}

// writeCell writes one cell with the sheet-write retry policy.
func writeCell(ctx context.Context, store table.Store, cfg retry.Config, row, col int, value interface{}) error {
	_, err := retry.WithRetry(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, store.WriteCell(ctx, row, col, value)
	})
	return err
}
