package processing

import (
	"context"
	"fmt"

	"steam_sheet_enrich/internal/batch"
	"steam_sheet_enrich/internal/columns"
	"steam_sheet_enrich/internal/progress"
	"steam_sheet_enrich/internal/retry"
	"steam_sheet_enrich/internal/steamhistory"
	"steam_sheet_enrich/internal/table"

	"github.com/rs/zerolog/log"
)

// ReputationProvider is the slice of the SteamHistory client the reputation
// processor needs.
type ReputationProvider interface {
	GetReputation(ctx context.Context, steamID string) (*steamhistory.Record, error)
}

// Reputation enriches each row with ban counts, reputation points and a risk
// rating, plus a profile link that is written regardless of provider
// success.
type Reputation struct {
	Provider   ReputationProvider
	APIRetry   retry.Config
	WriteRetry retry.Config
}

func NewReputation(provider ReputationProvider, apiRetry, writeRetry retry.Config) *Reputation {
	return &Reputation{
		Provider:   provider,
		APIRetry:   apiRetry,
		WriteRetry: writeRetry,
	}
}

func (p *Reputation) Kind() progress.Kind { return progress.KindReputation }

func (p *Reputation) Fields() []columns.FieldSpec {
	return []columns.FieldSpec{
		{Name: FieldSteamID, Label: "SteamID", Match: [][]string{{"steam"}, {"id", "64"}}},
		{Name: FieldProfile, Label: "Profile", Match: [][]string{{"profile"}}},
		{Name: FieldHasBans, Label: "Has Active Bans", Match: [][]string{{"has"}, {"ban"}}},
		{Name: FieldActiveBans, Label: "Active Bans", Match: [][]string{{"active"}, {"ban"}}},
		{Name: FieldExpiredBans, Label: "Expired Bans", Match: [][]string{{"expired"}, {"ban"}}},
		{Name: FieldPoints, Label: "Reputation Points", Match: [][]string{{"points"}}},
		{Name: FieldRisk, Label: "Risk Rating", Match: [][]string{{"risk"}}},
	}
}

func (p *Reputation) ProcessRow(ctx context.Context, store table.Store, cols map[string]int, rowIndex int, row []interface{}) batch.RowResult {
	steamID := table.CellTrimmed(row, cols[FieldSteamID])
	if steamID == "" {
		log.Debug().Int("row", rowIndex).Msg("Skipping row with blank identifier")
		return batch.RowResult{Outcome: batch.Skipped}
	}

	gridRow := rowIndex + 1

	// The link is pure string interpolation, so it goes in before the
	// provider is consulted and survives provider failures.
	if err := writeCell(ctx, store, p.WriteRetry, gridRow, cols[FieldProfile], ProfileURL(steamID)); err != nil {
		return batch.RowResult{Outcome: batch.Failed, Reason: err.Error()}
	}

	record, err := retry.WithRetry(ctx, p.APIRetry, func(ctx context.Context) (*steamhistory.Record, error) {
		return p.Provider.GetReputation(ctx, steamID)
	})
	if err != nil {
		return p.failRow(ctx, store, cols, gridRow, steamID, err)
	}

	if record == nil {
		if err := p.writeCells(ctx, store, cols, gridRow, "No Record", "", "", "", ""); err != nil {
			return batch.RowResult{Outcome: batch.Failed, Reason: err.Error()}
		}
		log.Debug().Int("row", rowIndex).Str("steam_id", steamID).Msg("No reputation record")
		return batch.RowResult{Outcome: batch.Success}
	}

	hasBans := "No"
	if len(record.ActiveBans) > 0 {
		hasBans = "Yes"
	}
	err = p.writeCells(ctx, store, cols, gridRow,
		hasBans,
		fmt.Sprintf("%d", len(record.ActiveBans)),
		fmt.Sprintf("%d", len(record.ExpiredBans)),
		fmt.Sprintf("%g", record.ReputationPoints),
		record.RiskRating,
	)
	if err != nil {
		return batch.RowResult{Outcome: batch.Failed, Reason: err.Error()}
	}

	log.Debug().
		Int("row", rowIndex).
		Str("steam_id", steamID).
		Int("active_bans", len(record.ActiveBans)).
		Int("expired_bans", len(record.ExpiredBans)).
		Str("risk", record.RiskRating).
		Msg("Reputation row written")
	return batch.RowResult{Outcome: batch.Success}
}

func (p *Reputation) writeCells(ctx context.Context, store table.Store, cols map[string]int, gridRow int, hasBans, active, expired, points, risk string) error {
	values := []struct {
		field string
		value string
	}{
		{FieldHasBans, hasBans},
		{FieldActiveBans, active},
		{FieldExpiredBans, expired},
		{FieldPoints, points},
		{FieldRisk, risk},
	}
	for _, v := range values {
		if err := writeCell(ctx, store, p.WriteRetry, gridRow, cols[v.field], v.value); err != nil {
			return err
		}
	}
	return nil
}

// failRow writes a visible error marker into the primary result cell and
// blanks the remaining cells. The profile link written earlier stays.
func (p *Reputation) failRow(ctx context.Context, store table.Store, cols map[string]int, gridRow int, steamID string, cause error) batch.RowResult {
	log.Warn().Err(cause).Str("steam_id", steamID).Msg("Reputation lookup failed")
	if err := p.writeCells(ctx, store, cols, gridRow, errorMarker(cause), "", "", "", ""); err != nil {
		log.Error().Err(err).Int("row", gridRow).Msg("Failed to write error marker")
	}
	return batch.RowResult{Outcome: batch.Failed, Reason: cause.Error()}
}
