package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studyflow/internal/apperr"
	"studyflow/internal/clock"
	"studyflow/internal/date"
	"studyflow/internal/domain"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List or add tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksAdd,
}

func init() {
	userFlag(tasksCmd)
	userFlag(tasksAddCmd)
	tasksAddCmd.Flags().StringP("priority", "p", "medium", "priority: high, medium or low")
	tasksAddCmd.Flags().String("deadline", "", "deadline date (YYYY-MM-DD)")
	tasksAddCmd.Flags().IntP("minutes", "m", domain.DefaultSessionMinutes, "estimated minutes")
	tasksCmd.AddCommand(tasksAddCmd)
	rootCmd.AddCommand(tasksCmd)
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	userID, err := userOf(cmd)
	if err != nil {
		return err
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

	tasks, err := repo.ListTasks(cmd.Context(), userID)
	if err != nil {
		return apperr.Store(err)
	}
	if flagJSON {
		return printJSON(tasks)
	}
	out := cmd.OutOrStdout()
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(out, "[%s] %-6s %s  %3dm  %s  %s\n", done, t.Priority, date.Of(t.Deadline), t.EstimatedTime, t.ID, t.Title)
	}
	return nil
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	userID, err := userOf(cmd)
	if err != nil {
		return err
	}
	rawPriority, _ := cmd.Flags().GetString("priority")
	priority, ok := domain.ParsePriority(rawPriority)
	if !ok {
		return apperr.Newf(apperr.InvalidInput, "invalid priority %q: expected high, medium or low", rawPriority)
	}
	rawDeadline, _ := cmd.Flags().GetString("deadline")
	if rawDeadline == "" {
		return apperr.New(apperr.InvalidInput, "--deadline is required")
	}
	due, err := date.Parse(rawDeadline)
	if err != nil {
		return apperr.New(apperr.InvalidInput, err.Error())
	}
	minutes, _ := cmd.Flags().GetInt("minutes")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, repo, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := repo.CreateTask(cmd.Context(), domain.Task{
		UserID:        userID,
		Title:         args[0],
		Priority:      priority,
		Deadline:      due.At(clock.MaxMinute, time.Local),
		EstimatedTime: minutes,
	})
	if err != nil {
		return apperr.Store(err)
	}
	if flagJSON {
		return printJSON(map[string]string{"id": id})
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
