package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"studyflow/internal/api"
	"studyflow/internal/assistant"
	"studyflow/internal/reschedule"
	"studyflow/internal/scheduler"
	"studyflow/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and periodic regeneration",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP bind address (overrides config listen)")
	serveCmd.Flags().Bool("debug", false, "expose pprof handlers under /debug/pprof")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Listen = addr
	}
	debug, _ := cmd.Flags().GetBool("debug")

	db, repo, err := openRepo(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewService(repo, worker.NewPool(cfg.Workers), cfg.SchedulerOptions())
	if cfg.RegenerateCron != "" {
		if err := sched.Start(ctx, cfg.RegenerateCron); err != nil {
			return err
		}
		defer sched.Stop()
	}

	mover := reschedule.NewExecutor(repo, repo, repo)
	mover.Step = cfg.MoveStepMinutes
	mover.TodayBuffer = cfg.TodayBufferMinutes

	handler := api.NewServerWithDebug(api.Deps{
		Repo:      repo,
		Scheduler: sched,
		Mover:     mover,
		Assistant: assistant.New(repo, repo, mover),
	}, debug)

	srv := &http.Server{Addr: cfg.Listen, Handler: handler}
	go func() {
		log.Info().Str("addr", cfg.Listen).Str("db", cfg.DBPath).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info().Msg("shutting down")
	cancel()
	ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()
	return srv.Shutdown(ctxTimeout)
}
