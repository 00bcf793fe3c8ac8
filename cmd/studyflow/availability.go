package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studyflow/internal/apperr"
	"studyflow/internal/clock"
)

var availabilityCmd = &cobra.Command{
	Use:   "availability [WINDOW...]",
	Short: "Show or replace daily availability windows",
	Long: `Without arguments prints the saved windows. With arguments replaces
them, e.g. studyflow availability 09:00-12:00 "14:00 - 17:00".`,
	RunE: runAvailability,
}

func init() {
	userFlag(availabilityCmd)
	rootCmd.AddCommand(availabilityCmd)
}

func runAvailability(cmd *cobra.Command, args []string) error {
	userID, err := userOf(cmd)
	if err != nil {
		return err
	}
	for _, w := range args {
		if _, ok := clock.ParseInterval(w); !ok {
			return apperr.Newf(apperr.InvalidInput, "invalid window %q: expected HH:MM-HH:MM", w)
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, repo, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) > 0 {
		if err := repo.SetAvailability(cmd.Context(), userID, args); err != nil {
			return apperr.Store(err)
		}
	}
	windows, err := repo.GetAvailability(cmd.Context(), userID)
	if err != nil {
		return apperr.Store(err)
	}
	if flagJSON {
		return printJSON(map[string][]string{"available_times": windows})
	}
	for _, w := range windows {
		fmt.Fprintln(cmd.OutOrStdout(), w)
	}
	return nil
}
