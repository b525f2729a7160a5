package cmd

import (
	"fmt"

	"steam_sheet_enrich/internal/steam"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <vanity-name>",
	Short: "Resolve a community vanity name to a SteamID64",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSteamKey(); err != nil {
			return err
		}
		steamID, err := steam.NewClient(cfg.SteamAPIKey).ResolveVanityURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(steamID)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(resolveCmd)
}
