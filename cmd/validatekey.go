package cmd

import (
	"fmt"

	"steam_sheet_enrich/internal/steam"

	"github.com/spf13/cobra"
)

// Any public profile works as a probe; an invalid key fails regardless of
// the account queried. Default is the Steam founder account.
const defaultProbeSteamID = "76561197960287930"

var validateKeyCmd = &cobra.Command{
	Use:   "validate-key [probe-steamid]",
	Short: "Check that the configured Steam API key works",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSteamKey(); err != nil {
			return err
		}
		probe := defaultProbeSteamID
		if len(args) == 1 {
			probe = args[0]
		}
		name, err := steam.NewClient(cfg.SteamAPIKey).WhoAmI(cmd.Context(), probe)
		if err != nil {
			return fmt.Errorf("API key check failed: %w", err)
		}
		fmt.Printf("API key OK (probe profile: %s)\n", name)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(validateKeyCmd)
}
