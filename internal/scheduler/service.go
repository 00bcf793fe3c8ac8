package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"studyflow/internal/apperr"
	"studyflow/internal/date"
	"studyflow/internal/store"
	"studyflow/internal/worker"
)

// Service runs bulk scheduling against the store, on demand for one user
// or periodically for every user with saved availability.
type Service struct {
	repo store.Repository
	pool *worker.Pool
	cron *cron.Cron
	opts Options
	now  func() time.Time
}

func NewService(repo store.Repository, pool *worker.Pool, opts Options) *Service {
	return &Service{
		repo: repo,
		pool: pool,
		cron: cron.New(),
		opts: opts.normalized(),
		now:  time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Generate schedules the user's pending tasks and persists the new entries.
// A store failure aborts the run; entries inserted before it remain.
func (s *Service) Generate(ctx context.Context, userID string) (Result, error) {
	if userID == "" {
		return Result{}, apperr.New(apperr.Unauthenticated, "Please sign in to generate a schedule.")
	}
	tasks, err := s.repo.ListTasks(ctx, userID)
	if err != nil {
		return Result{}, apperr.Store(err)
	}
	windows, err := s.repo.GetAvailability(ctx, userID)
	if err != nil {
		return Result{}, apperr.Store(err)
	}
	existing, err := s.repo.ListEntries(ctx, userID, date.Date{}, date.Date{})
	if err != nil {
		return Result{}, apperr.Store(err)
	}

	res := ScheduleAll(Request{
		UserID:       userID,
		Tasks:        tasks,
		Availability: windows,
		Existing:     existing,
		Now:          s.now(),
	}, s.opts)

	for i := range res.Entries {
		id, err := s.repo.InsertEntry(ctx, res.Entries[i])
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Int("inserted", i).Msg("failed to persist schedule entry")
			res.Entries = res.Entries[:i]
			return res, apperr.Store(err)
		}
		res.Entries[i].ID = id
	}

	for _, sf := range res.Shortfalls {
		log.Info().
			Str("user_id", userID).
			Str("task_id", sf.TaskID).
			Int("needed", sf.SessionsNeeded).
			Int("placed", sf.SessionsPlaced).
			Str("latest_date", sf.LatestDate.String()).
			Msg("task could not be fully scheduled")
	}
	log.Info().
		Str("user_id", userID).
		Int("entries", len(res.Entries)).
		Int("shortfalls", len(res.Shortfalls)).
		Msg("schedule generated")
	return res, nil
}

// RegenerateAll runs Generate for every user with saved availability.
func (s *Service) RegenerateAll(ctx context.Context) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return
	}
	errs := s.pool.Run(ctx, users, func(ctx context.Context, userID string) error {
		_, err := s.Generate(ctx, userID)
		return err
	})
	for userID, err := range errs {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to regenerate schedule")
	}
}

// Start registers RegenerateAll on the cron expression and starts the cron loop.
func (s *Service) Start(ctx context.Context, expr string) error {
	if err := ValidateCronExpression(expr); err != nil {
		log.Error().Err(err).Str("cron_expr", expr).Msg("invalid cron expression")
		return err
	}
	if _, err := s.cron.AddFunc(expr, func() { s.RegenerateAll(ctx) }); err != nil {
		return err
	}
	s.cron.Start()

	next, _ := NextRunTime(expr, s.now())
	log.Info().Str("cron_expr", expr).Time("next_run", next).Msg("schedule service started")
	return nil
}

// Stop halts the cron loop and waits for a running regeneration to finish.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}

// ValidateCronExpression validates a cron expression
func ValidateCronExpression(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}

// NextRunTime calculates the next run time for a cron expression
func NextRunTime(expr string, from time.Time) (time.Time, error) {
	cronSchedule, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, err
	}
	return cronSchedule.Next(from), nil
}
