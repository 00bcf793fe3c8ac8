// Package slot finds the earliest free placement of a fixed-length session
// inside a day's availability windows.
package slot

import (
	"studyflow/internal/availability"
	"studyflow/internal/clock"
)

// Step sizes used by the two callers. Bulk scheduling favours round
// half-hour starts; conversational moves search at a finer grain.
const (
	BulkStep = 30
	MoveStep = 5
)

// FindEarliest returns the first interval of length duration that lies
// inside one of windows, starts no earlier than minStart, starts on a
// multiple of step and overlaps none of occupied. Windows are searched in
// start order; the input slice is not modified.
func FindEarliest(windows, occupied []clock.Interval, duration, minStart, step int) (clock.Interval, bool) {
	if duration <= 0 {
		return clock.Interval{}, false
	}
	if step <= 0 {
		step = 1
	}
	sorted := make([]clock.Interval, len(windows))
	copy(sorted, windows)
	availability.Sort(sorted)

	for _, w := range sorted {
		if w.Duration() < duration {
			continue
		}
		for t := ceilTo(max(w.Start, minStart), step); t+duration <= w.End; t += step {
			candidate := clock.Interval{Start: t, End: t + duration}
			if Free(candidate, occupied) {
				return candidate, true
			}
		}
	}
	return clock.Interval{}, false
}

// FindEarliestSlot is FindEarliest over raw "HH:MM-HH:MM" window strings.
func FindEarliestSlot(windows []string, occupied []clock.Interval, duration, minStart, step int) (clock.Interval, bool) {
	return FindEarliest(availability.Windows(windows), occupied, duration, minStart, step)
}

// Free reports whether candidate overlaps none of occupied.
func Free(candidate clock.Interval, occupied []clock.Interval) bool {
	for _, o := range occupied {
		if candidate.Overlaps(o) {
			return false
		}
	}
	return true
}

func ceilTo(m, step int) int {
	if r := m % step; r != 0 {
		return m + step - r
	}
	return m
}
