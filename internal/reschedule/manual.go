package reschedule

import (
	"context"

	"github.com/rs/zerolog/log"

	"studyflow/internal/apperr"
	"studyflow/internal/availability"
	"studyflow/internal/domain"
)

// AddManualEntry inserts a user-placed entry after checking that it
// overlaps nothing already scheduled that day.
func (x *Executor) AddManualEntry(ctx context.Context, e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	if e.UserID == "" {
		return domain.ScheduleEntry{}, apperr.New(apperr.Unauthenticated, "Please sign in to modify your schedule.")
	}
	if e.Date.IsZero() {
		return domain.ScheduleEntry{}, apperr.New(apperr.InvalidInput, "date is required")
	}
	iv, ok := e.Span()
	if !ok {
		return domain.ScheduleEntry{}, apperr.Newf(apperr.InvalidInput, "invalid interval %q: expected HH:MM-HH:MM", e.Interval)
	}

	day, err := x.entries.ListEntries(ctx, e.UserID, e.Date, e.Date)
	if err != nil {
		return domain.ScheduleEntry{}, apperr.Store(err)
	}
	for _, other := range availability.EntriesOn(e.Date, day) {
		if o, ok := other.Span(); ok && iv.Overlaps(o) {
			return domain.ScheduleEntry{}, apperr.Newf(apperr.Conflict,
				"%s on %s overlaps “%s” (%s).", iv, e.Date, other.TaskDescription, o).
				WithDetails(map[string]any{"conflicting_entry_id": other.ID})
		}
	}

	e.Interval = iv.String()
	e.IsAutoScheduled = false
	if e.ID, err = x.entries.InsertEntry(ctx, e); err != nil {
		return domain.ScheduleEntry{}, apperr.Store(err)
	}
	log.Info().Str("user_id", e.UserID).Str("date", e.Date.String()).Str("interval", e.Interval).Msg("manual entry added")
	return e, nil
}

