// Package cmd wires the command surface: the two batch enrichment commands
// plus the one-shot lookup and maintenance commands.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"steam_sheet_enrich/internal/app"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg *app.Config

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "steam-sheet-enrich",
	Short: "Batch-enrich a spreadsheet of SteamID64s with ownership and reputation data",
	Long: `steam-sheet-enrich walks a Google Sheets roster of SteamID64 identifiers
row by row, querying the Steam Web API for target-app ownership/playtime and
the SteamHistory API for ban/reputation records, and writes the results back
into the sheet. A durable cursor after every row makes interrupted runs
resumable without duplicate work.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := app.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		app.SetupLogging(cfg)
		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

// stdinDecision blocks on a y/N prompt; the batch driver calls it at
// checkpoints and on sheet-mismatch resumes.
type stdinDecision struct{}

func (stdinDecision) Confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
