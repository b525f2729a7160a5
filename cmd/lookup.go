package cmd

import (
	"fmt"

	"steam_sheet_enrich/internal/processing"
	"steam_sheet_enrich/internal/steam"
	"steam_sheet_enrich/internal/steamhistory"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <steamid64>",
	Short: "One-shot ownership and reputation lookup for a single account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSteamKey(); err != nil {
			return err
		}
		ctx := cmd.Context()
		steamID := args[0]

		steamClient := steam.NewClient(cfg.SteamAPIKey)
		owned, err := steamClient.GetOwnedGames(ctx, steamID)
		if err != nil {
			return err
		}

		fmt.Printf("Profile:  %s\n", processing.ProfileURL(steamID))
		fmt.Printf("Games:    %d owned\n", owned.GameCount)
		found := false
		for _, g := range owned.Games {
			if g.AppID != cfg.TargetAppID {
				continue
			}
			found = true
			recent := 0
			if g.Playtime2Weeks != nil {
				recent = *g.Playtime2Weeks
			}
			fmt.Printf("App %d:  owned, %s h total, %s h recent\n",
				cfg.TargetAppID,
				processing.FormatHours(processing.MinutesToHours(g.PlaytimeForever)),
				processing.FormatHours(processing.MinutesToHours(recent)))
		}
		if !found {
			fmt.Printf("App %d:  not owned\n", cfg.TargetAppID)
		}

		record, err := steamhistory.NewClient(cfg.SteamHistoryAPIKey).GetReputation(ctx, steamID)
		if err != nil {
			return err
		}
		if record == nil {
			fmt.Println("Reputation: no record")
			return nil
		}
		fmt.Printf("Reputation: %g points, risk %s, %d active / %d expired bans\n",
			record.ReputationPoints, record.RiskRating,
			len(record.ActiveBans), len(record.ExpiredBans))
		for _, ban := range record.ActiveBans {
			fmt.Printf("  active ban on %s (%s): %s\n", ban.ListName, ban.Organisation, ban.Reason)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(lookupCmd)
}
