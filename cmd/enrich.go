package cmd

import (
	"context"
	"errors"

	"steam_sheet_enrich/internal/app"
	"steam_sheet_enrich/internal/batch"
	"steam_sheet_enrich/internal/processing"
	"steam_sheet_enrich/internal/progress"
	"steam_sheet_enrich/internal/sheets"
	"steam_sheet_enrich/internal/steam"
	"steam_sheet_enrich/internal/steamhistory"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	resumeFlag bool
	startFlag  int
	endFlag    int
)

var ownershipCmd = &cobra.Command{
	Use:   "ownership",
	Short: "Enrich the sheet with target-app ownership and playtime",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSteamKey(); err != nil {
			return err
		}
		proc := processing.NewOwnership(
			steam.NewClient(cfg.SteamAPIKey),
			cfg.TargetAppID,
			app.DefaultResilienceConfig.APIRequest,
			app.DefaultResilienceConfig.SheetWrite,
		)
		return runEnrichment(cmd.Context(), proc, cfg.OwnershipCheck)
	},
}

var reputationCmd = &cobra.Command{
	Use:   "reputation",
	Short: "Enrich the sheet with ban and reputation records",
	RunE: func(cmd *cobra.Command, args []string) error {
		proc := processing.NewReputation(
			steamhistory.NewClient(cfg.SteamHistoryAPIKey),
			app.DefaultResilienceConfig.APIRequest,
			app.DefaultResilienceConfig.SheetWrite,
		)
		return runEnrichment(cmd.Context(), proc, cfg.ReputationCheck)
	},
}

func init() {
	for _, c := range []*cobra.Command{ownershipCmd, reputationCmd} {
		c.Flags().BoolVar(&resumeFlag, "resume", false, "continue from the saved cursor")
		c.Flags().IntVar(&startFlag, "start", 0, "first data row to process (0-based)")
		c.Flags().IntVar(&endFlag, "end", 0, "data row to stop before (0 = end of table)")
		RootCmd.AddCommand(c)
	}
}

func runEnrichment(ctx context.Context, proc batch.Processor, checkEvery int) error {
	if err := cfg.RequireSheet(); err != nil {
		return err
	}

	sheetsClient, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return err
	}
	store := sheets.NewSheet(sheetsClient, cfg.SpreadsheetID, cfg.SheetName)
	cursor := progress.NewStore(cfg.ProgressFile)

	driver := batch.NewDriver(store, cursor, stdinDecision{}, cfg.RowDelay, checkEvery, cfg.TimeBudget)
	outcome, err := driver.Run(ctx, proc, resumeFlag, startFlag, endFlag)

	// Exactly one summary per run: completed, paused, nothing-to-resume or
	// aborted at setup.
	switch {
	case errors.Is(err, batch.ErrNothingToResume):
		log.Info().Str("kind", string(proc.Kind())).Msg("No saved progress; nothing to resume")
		return nil
	case errors.Is(err, batch.ErrAborted):
		log.Warn().Str("kind", string(proc.Kind())).Msg("Batch aborted before any row was touched")
		return nil
	case err != nil:
		return err
	}

	if outcome.Status == batch.Paused {
		log.Info().
			Str("kind", string(proc.Kind())).
			Int("paused_at_row", outcome.PausedAt).
			Msgf("Batch paused. Rerun with --resume to continue from row %d.", outcome.PausedAt+1)
		return nil
	}

	log.Info().
		Str("kind", string(proc.Kind())).
		Int("succeeded", outcome.Succeeded).
		Int("skipped", outcome.Skipped).
		Int("failed", outcome.Failed).
		Msg("Batch completed")
	return nil
}
