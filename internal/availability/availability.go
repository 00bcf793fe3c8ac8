// Package availability turns a user's standing "HH:MM-HH:MM" windows and
// their existing schedule entries into the interval sets the slot finder
// searches. Nothing here holds state; every call recomputes from its input.
package availability

import (
	"sort"

	"github.com/rs/zerolog/log"

	"studyflow/internal/clock"
	"studyflow/internal/date"
	"studyflow/internal/domain"
)

// Windows parses availability strings, dropping malformed ones, and returns
// them sorted by start then end.
func Windows(raw []string) []clock.Interval {
	out := make([]clock.Interval, 0, len(raw))
	for _, s := range raw {
		iv, ok := clock.ParseInterval(s)
		if !ok {
			log.Warn().Str("window", s).Msg("skipping malformed availability window")
			continue
		}
		out = append(out, iv)
	}
	Sort(out)
	return out
}

// Sort orders intervals by start ascending, ties by end ascending.
func Sort(ivs []clock.Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if ivs[i].Start != ivs[j].Start {
			return ivs[i].Start < ivs[j].Start
		}
		return ivs[i].End < ivs[j].End
	})
}

// OccupiedIntervalsForDate returns the parsed intervals of entries on d.
// Entries whose interval does not parse are skipped.
func OccupiedIntervalsForDate(d date.Date, entries []domain.ScheduleEntry) []clock.Interval {
	return OccupiedExcept(d, entries, "")
}

// OccupiedExcept is OccupiedIntervalsForDate ignoring the entry with ID skipID.
func OccupiedExcept(d date.Date, entries []domain.ScheduleEntry, skipID string) []clock.Interval {
	var out []clock.Interval
	for _, e := range entries {
		if !e.Date.Equal(d) || (skipID != "" && e.ID == skipID) {
			continue
		}
		iv, ok := e.Span()
		if !ok {
			log.Warn().
				Str("entry_id", e.ID).
				Str("date", e.Date.String()).
				Str("interval", e.Interval).
				Msg("skipping schedule entry with malformed interval")
			continue
		}
		out = append(out, iv)
	}
	return out
}

// EntriesOn returns the entries dated d, ordered by start minute. Entries
// with malformed intervals sort last in their original order.
func EntriesOn(d date.Date, entries []domain.ScheduleEntry) []domain.ScheduleEntry {
	var out []domain.ScheduleEntry
	for _, e := range entries {
		if e.Date.Equal(d) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i].Span()
		b, bok := out[j].Span()
		if aok != bok {
			return aok
		}
		return aok && a.Start < b.Start
	})
	return out
}
