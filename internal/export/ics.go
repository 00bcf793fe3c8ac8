// Package export renders a user's schedule entries as an iCalendar feed.
package export

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog/log"

	"studyflow/internal/domain"
)

const productID = "-//studyflow//schedule//EN"

// Calendar builds a VCALENDAR with one VEVENT per entry. Entry times are
// wall-clock values interpreted in loc. Entries with malformed intervals
// are skipped.
func Calendar(entries []domain.ScheduleEntry, loc *time.Location, stamp time.Time) *ical.Calendar {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range entries {
		iv, ok := e.Span()
		if !ok {
			log.Warn().Str("entry_id", e.ID).Str("interval", e.Interval).Msg("skipping entry with malformed interval in export")
			continue
		}
		ev := cal.AddEvent(e.ID + "@studyflow")
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(e.Date.At(iv.Start, loc))
		ev.SetEndAt(e.Date.At(iv.End, loc))
		ev.SetSummary(e.TaskDescription)
		if e.IsAutoScheduled {
			ev.SetProperty(ical.ComponentPropertyCategories, "auto-scheduled")
		}
		if e.TaskID != "" {
			ev.SetDescription("Task " + e.TaskID)
		}
	}
	return cal
}

// WriteICS serializes entries as an iCalendar document to w.
func WriteICS(w io.Writer, entries []domain.ScheduleEntry, loc *time.Location, stamp time.Time) error {
	return Calendar(entries, loc, stamp).SerializeTo(w)
}
