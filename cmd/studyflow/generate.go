package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studyflow/internal/scheduler"
	"studyflow/internal/worker"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Schedule pending tasks into free time",
	Long: `Places every incomplete, unscheduled task into the user's availability,
highest priority and earliest deadline first. With --all every user with
saved availability is regenerated.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	userFlag(generateCmd)
	generateCmd.Flags().Bool("all", false, "regenerate every user")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, repo, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sched := scheduler.NewService(repo, worker.NewPool(cfg.Workers), cfg.SchedulerOptions())
	if all, _ := cmd.Flags().GetBool("all"); all {
		sched.RegenerateAll(cmd.Context())
		return nil
	}

	userID, err := userOf(cmd)
	if err != nil {
		return err
	}
	res, err := sched.Generate(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(res)
	}

	out := cmd.OutOrStdout()
	for _, e := range res.Entries {
		fmt.Fprintf(out, "%s  %s  %s\n", e.Date, e.Interval, e.TaskDescription)
	}
	for _, sf := range res.Shortfalls {
		fmt.Fprintf(out, "unscheduled: %s (%d of %d sessions placed by %s)\n", sf.Title, sf.SessionsPlaced, sf.SessionsNeeded, sf.LatestDate)
	}
	if len(res.Entries) == 0 && len(res.Shortfalls) == 0 {
		fmt.Fprintln(out, "nothing to schedule")
	}
	return nil
}
