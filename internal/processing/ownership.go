package processing

import (
	"context"

	"steam_sheet_enrich/internal/batch"
	"steam_sheet_enrich/internal/columns"
	"steam_sheet_enrich/internal/progress"
	"steam_sheet_enrich/internal/retry"
	"steam_sheet_enrich/internal/steam"
	"steam_sheet_enrich/internal/table"

	"github.com/rs/zerolog/log"
)

// OwnershipProvider is the slice of the Steam client the ownership
// processor needs.
type OwnershipProvider interface {
	GetOwnedGames(ctx context.Context, steamID string) (*steam.OwnedGames, error)
	GetRecentlyPlayedGames(ctx context.Context, steamID string) (*steam.OwnedGames, error)
}

// Ownership enriches each row with whether the account owns the target app
// and its recent/total playtime in hours.
type Ownership struct {
	Provider   OwnershipProvider
	AppID      int
	APIRetry   retry.Config
	WriteRetry retry.Config
}

func NewOwnership(provider OwnershipProvider, appID int, apiRetry, writeRetry retry.Config) *Ownership {
	return &Ownership{
		Provider:   provider,
		AppID:      appID,
		APIRetry:   apiRetry,
		WriteRetry: writeRetry,
	}
}

func (p *Ownership) Kind() progress.Kind { return progress.KindOwnership }

func (p *Ownership) Fields() []columns.FieldSpec {
	return []columns.FieldSpec{
		{Name: FieldSteamID, Label: "SteamID", Match: [][]string{{"steam"}, {"id", "64"}}},
		{Name: FieldOwns, Label: "Owns Game", Match: [][]string{{"owns"}}},
		{Name: FieldRecent, Label: "Recent Playtime (hours)", Match: [][]string{{"recent"}}},
		{Name: FieldTotal, Label: "Total Playtime (hours)", Match: [][]string{{"total"}, {"playtime"}}},
	}
}

func (p *Ownership) ProcessRow(ctx context.Context, store table.Store, cols map[string]int, rowIndex int, row []interface{}) batch.RowResult {
	steamID := table.CellTrimmed(row, cols[FieldSteamID])
	if steamID == "" {
		log.Debug().Int("row", rowIndex).Msg("Skipping row with blank identifier")
		return batch.RowResult{Outcome: batch.Skipped}
	}

	gridRow := rowIndex + 1

	owned, err := retry.WithRetry(ctx, p.APIRetry, func(ctx context.Context) (*steam.OwnedGames, error) {
		return p.Provider.GetOwnedGames(ctx, steamID)
	})
	if err != nil {
		return p.failRow(ctx, store, cols, gridRow, steamID, err)
	}

	var game *steam.Game
	for i := range owned.Games {
		if owned.Games[i].AppID == p.AppID {
			game = &owned.Games[i]
			break
		}
	}

	if game == nil {
		if err := p.writeNotOwned(ctx, store, cols, gridRow); err != nil {
			return batch.RowResult{Outcome: batch.Failed, Reason: err.Error()}
		}
		log.Debug().Int("row", rowIndex).Str("steam_id", steamID).Msg("Target app not owned")
		return batch.RowResult{Outcome: batch.Success}
	}

	recentMinutes, err := p.recentMinutes(ctx, steamID, game)
	if err != nil {
		return p.failRow(ctx, store, cols, gridRow, steamID, err)
	}

	if err := p.writeOwned(ctx, store, cols, gridRow, recentMinutes, game.PlaytimeForever); err != nil {
		return batch.RowResult{Outcome: batch.Failed, Reason: err.Error()}
	}

	log.Debug().
		Int("row", rowIndex).
		Str("steam_id", steamID).
		Int("recent_minutes", recentMinutes).
		Int("total_minutes", game.PlaytimeForever).
		Msg("Ownership row written")
	return batch.RowResult{Outcome: batch.Success}
}

// recentMinutes returns the two-week playtime. When the ownership payload
// carries no recent-activity figure, the recently-played endpoint is queried
// as a fallback.
func (p *Ownership) recentMinutes(ctx context.Context, steamID string, game *steam.Game) (int, error) {
	if game.Playtime2Weeks != nil {
		return *game.Playtime2Weeks, nil
	}

	recent, err := retry.WithRetry(ctx, p.APIRetry, func(ctx context.Context) (*steam.OwnedGames, error) {
		return p.Provider.GetRecentlyPlayedGames(ctx, steamID)
	})
	if err != nil {
		return 0, err
	}
	for _, g := range recent.Games {
		if g.AppID == p.AppID {
			if g.Playtime2Weeks != nil {
				return *g.Playtime2Weeks, nil
			}
			return g.PlaytimeForever, nil
		}
	}
	return 0, nil
}

func (p *Ownership) writeOwned(ctx context.Context, store table.Store, cols map[string]int, gridRow, recentMinutes, totalMinutes int) error {
	if err := writeCell(ctx, store, p.WriteRetry, gridRow, cols[FieldOwns], "Yes"); err != nil {
		return err
	}
	if err := writeCell(ctx, store, p.WriteRetry, gridRow, cols[FieldRecent], FormatHours(MinutesToHours(recentMinutes))); err != nil {
		return err
	}
	return writeCell(ctx, store, p.WriteRetry, gridRow, cols[FieldTotal], FormatHours(MinutesToHours(totalMinutes)))
}

func (p *Ownership) writeNotOwned(ctx context.Context, store table.Store, cols map[string]int, gridRow int) error {
	if err := writeCell(ctx, store, p.WriteRetry, gridRow, cols[FieldOwns], "No"); err != nil {
		return err
	}
	if err := writeCell(ctx, store, p.WriteRetry, gridRow, cols[FieldRecent], ""); err != nil {
		return err
	}
	return writeCell(ctx, store, p.WriteRetry, gridRow, cols[FieldTotal], "")
}

// failRow writes a visible error marker into the primary result cell and
// blanks the numeric cells. The batch continues.
func (p *Ownership) failRow(ctx context.Context, store table.Store, cols map[string]int, gridRow int, steamID string, cause error) batch.RowResult {
	log.Warn().Err(cause).Str("steam_id", steamID).Msg("Ownership lookup failed")
	if err := writeCell(ctx, store, p.WriteRetry, gridRow, cols[FieldOwns], errorMarker(cause)); err != nil {
		log.Error().Err(err).Int("row", gridRow).Msg("Failed to write error marker")
	}
	for _, field := range []string{FieldRecent, FieldTotal} {
		if err := writeCell(ctx, store, p.WriteRetry, gridRow, cols[field], ""); err != nil {
			log.Error().Err(err).Int("row", gridRow).Msg("Failed to blank cell")
		}
	}
	return batch.RowResult{Outcome: batch.Failed, Reason: cause.Error()}
}
