// Package reschedule moves a single schedule entry to a new date and time,
// and inserts manual entries after checking them for conflicts.
package reschedule

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"studyflow/internal/apperr"
	"studyflow/internal/availability"
	"studyflow/internal/clock"
	"studyflow/internal/command"
	"studyflow/internal/date"
	"studyflow/internal/domain"
	"studyflow/internal/slot"
	"studyflow/internal/store"
)

// Search window around the target date when the identifier is not found on it.
const (
	searchBackDays    = 3
	searchForwardDays = 7
)

var intervalLike = regexp.MustCompile(`^\s*\d{1,2}:\d{2}\s*-\s*\d{1,2}:\d{2}\s*$`)

type Executor struct {
	entries      store.ScheduleStore
	tasks        store.TaskSource
	availability store.AvailabilitySource

	Now         func() time.Time
	Step        int
	TodayBuffer int
}

func NewExecutor(entries store.ScheduleStore, tasks store.TaskSource, avail store.AvailabilitySource) *Executor {
	return &Executor{
		entries:      entries,
		tasks:        tasks,
		availability: avail,
		Now:          time.Now,
		Step:         slot.MoveStep,
		TodayBuffer:  60,
	}
}

// ExecuteMove resolves the entry named by req and re-places it on the
// target date. The moved entry keeps its description and task link and is
// always marked auto-scheduled.
func (x *Executor) ExecuteMove(ctx context.Context, req MoveRequest) (domain.ScheduleEntry, error) {
	if err := req.Validate(); err != nil {
		return domain.ScheduleEntry{}, err
	}
	now := x.Now()
	today := date.Of(now)
	target := req.TargetDate
	if target.IsZero() {
		target = today
	}

	nearby, err := x.entries.ListEntries(ctx, req.UserID, target.AddDays(-searchBackDays), target.AddDays(searchForwardDays))
	if err != nil {
		return domain.ScheduleEntry{}, apperr.Store(err)
	}
	found, ok := Resolve(req.Identifier, target, nearby)
	if !ok {
		return domain.ScheduleEntry{}, apperr.Newf(apperr.NotFound,
			"I couldn’t find a scheduled item matching “%s”. Please provide the exact interval (“HH:MM - HH:MM”) or a unique part of the title.",
			command.NormalizeIdentifier(req.Identifier)).
			WithDetails(map[string]any{"identifier": req.Identifier, "target_date": target.String()})
	}

	duration, err := x.duration(ctx, req.UserID, found)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}

	raw, err := x.availability.GetAvailability(ctx, req.UserID)
	if err != nil {
		return domain.ScheduleEntry{}, apperr.Store(err)
	}
	windows := availability.Windows(raw)
	if len(windows) == 0 {
		return domain.ScheduleEntry{}, apperr.New(apperr.NoAvailability,
			"You haven’t set your available times yet. Please set them in Time Preferences first.").
			WithDetails(map[string]any{"reason": "no_availability_windows"})
	}

	occupied := availability.OccupiedExcept(target, nearby, found.ID)
	minStart := 0
	if target.Equal(today) {
		minStart = clock.MinutesOf(now) + x.TodayBuffer
	}

	iv, ok := x.place(windows, occupied, duration, minStart, req.TargetTimeMinutes)
	if !ok {
		return domain.ScheduleEntry{}, apperr.Newf(apperr.NoAvailability,
			"No free slots available on %s for a %d-minute session.", target, duration).
			WithDetails(map[string]any{"date": target.String(), "duration_minutes": duration})
	}

	moved := domain.ScheduleEntry{
		UserID:          req.UserID,
		Date:            target,
		Interval:        iv.String(),
		TaskDescription: found.TaskDescription,
		TaskID:          found.TaskID,
		IsAutoScheduled: true,
	}
	if moved.ID, err = x.replace(ctx, found, moved); err != nil {
		return domain.ScheduleEntry{}, apperr.Store(err)
	}

	log.Info().
		Str("user_id", req.UserID).
		Str("from_date", found.Date.String()).
		Str("from_interval", found.Interval).
		Str("to_date", moved.Date.String()).
		Str("to_interval", moved.Interval).
		Msg("schedule entry moved")
	return moved, nil
}

// place honours an explicit start when it is free and fits in the day,
// otherwise searches for the earliest slot from the same floor.
func (x *Executor) place(windows, occupied []clock.Interval, duration, minStart int, at *int) (clock.Interval, bool) {
	floor := minStart
	if at != nil {
		floor = max(minStart, *at)
		candidate := clock.Interval{Start: floor, End: floor + duration}
		if candidate.End <= clock.MaxMinute && slot.Free(candidate, occupied) {
			return candidate, true
		}
	}
	return slot.FindEarliest(windows, occupied, duration, floor, x.Step)
}

func (x *Executor) duration(ctx context.Context, userID string, e domain.ScheduleEntry) (int, error) {
	if e.TaskID == "" {
		return domain.DefaultSessionMinutes, nil
	}
	t, err := x.tasks.GetTask(ctx, userID, e.TaskID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.DefaultSessionMinutes, nil
	}
	if err != nil {
		return 0, apperr.Store(err)
	}
	return t.EffectiveDuration(), nil
}

func (x *Executor) replace(ctx context.Context, old, next domain.ScheduleEntry) (string, error) {
	if r, ok := x.entries.(store.EntryReplacer); ok {
		return r.ReplaceEntry(ctx, old.ID, next)
	}
	if err := x.entries.DeleteEntry(ctx, old.UserID, old.ID); err != nil {
		return "", err
	}
	return x.entries.InsertEntry(ctx, next)
}

// Resolve finds the entry named by identifier, first on target and then on
// each day from target-3 to target+7. An interval-shaped identifier matches
// an entry's interval exactly before falling back to a case-insensitive
// description match.
func Resolve(identifier string, target date.Date, entries []domain.ScheduleEntry) (domain.ScheduleEntry, bool) {
	if e, ok := matchOn(identifier, target, entries); ok {
		return e, true
	}
	for i := -searchBackDays; i <= searchForwardDays; i++ {
		if i == 0 {
			continue
		}
		if e, ok := matchOn(identifier, target.AddDays(i), entries); ok {
			return e, true
		}
	}
	return domain.ScheduleEntry{}, false
}

func matchOn(identifier string, d date.Date, entries []domain.ScheduleEntry) (domain.ScheduleEntry, bool) {
	day := availability.EntriesOn(d, entries)
	normalized := command.NormalizeIdentifier(identifier)

	if intervalLike.MatchString(normalized) {
		if want, ok := clock.ParseInterval(normalized); ok {
			for _, e := range day {
				if iv, ok := e.Span(); ok && iv == want {
					return e, true
				}
			}
		}
	}

	raw := strings.ToLower(strings.TrimSpace(identifier))
	norm := strings.ToLower(normalized)
	for _, e := range day {
		desc := strings.ToLower(e.TaskDescription)
		if strings.Contains(desc, raw) || strings.Contains(desc, norm) {
			return e, true
		}
	}
	return domain.ScheduleEntry{}, false
}
