package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studyflow/internal/assistant"
	"studyflow/internal/reschedule"
)

var askCmd = &cobra.Command{
	Use:   "ask MESSAGE...",
	Short: "Ask the assistant about or change your schedule",
	Long: `Sends a message to the schedule assistant, for example:
  studyflow ask what should I do now
  studyflow ask move algebra to tomorrow 14:30
  studyflow ask "add task: essay draft high priority 2 hours"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	userFlag(askCmd)
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, repo, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	mover := reschedule.NewExecutor(repo, repo, repo)
	mover.Step = cfg.MoveStepMinutes
	mover.TodayBuffer = cfg.TodayBufferMinutes

	u, _ := cmd.Flags().GetString("user")
	reply := assistant.New(repo, repo, mover).HandleUserMessage(cmd.Context(), strings.Join(args, " "), u)
	if flagJSON {
		return printJSON(map[string]string{"reply": reply})
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
