package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"studyflow/internal/apperr"
	"studyflow/internal/config"
	"studyflow/internal/store"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	flagConfig   string
	flagDB       string
	flagLogLevel string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "studyflow",
	Short: "Study planner that fits tasks into your available time",
	Long: `studyflow schedules study tasks into daily availability windows,
splitting long tasks into sessions that finish before their deadlines.
Run "studyflow serve" for the HTTP API or use the subcommands directly.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfigPath(), "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite DB path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var appErr *apperr.Error
	if flagJSON && errors.As(err, &appErr) {
		_ = json.NewEncoder(os.Stdout).Encode(appErr)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "studyflow.yaml"
	}
	return filepath.Join(home, ".config", "studyflow", "config.yaml")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = flagDB
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	cfg.Normalize()
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func openRepo(cfg *config.Config) (*sql.DB, store.Repository, error) {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return db, store.NewSQLiteRepo(db), nil
}

// userFlag registers the --user flag shared by per-user commands.
func userFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", os.Getenv("STUDYFLOW_USER"), "user id (default $STUDYFLOW_USER)")
}

func userOf(cmd *cobra.Command) (string, error) {
	u, _ := cmd.Flags().GetString("user")
	if u == "" {
		return "", apperr.New(apperr.Unauthenticated, "no user: pass --user or set STUDYFLOW_USER")
	}
	return u, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
