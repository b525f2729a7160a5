package cmd

import (
	"fmt"

	"steam_sheet_enrich/internal/progress"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset <ownership|reputation>",
	Short: "Discard the saved cursor for a batch kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := progress.Kind(args[0])
		if kind != progress.KindOwnership && kind != progress.KindReputation {
			return fmt.Errorf("unknown batch kind %q", args[0])
		}
		store := progress.NewStore(cfg.ProgressFile)
		if err := store.Clear(kind); err != nil {
			return err
		}
		log.Info().Str("kind", string(kind)).Msg("Cursor cleared")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(resetCmd)
}
