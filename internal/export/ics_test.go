package export

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"studyflow/internal/date"
	"studyflow/internal/domain"
)

func TestWriteICS(t *testing.T) {
	d := date.New(2026, time.October, 20)
	entries := []domain.ScheduleEntry{
		{ID: "ent_1", Date: d, Interval: "09:00-10:30", TaskDescription: "Algebra (Session 1/2)", TaskID: "tsk_1", IsAutoScheduled: true},
		{ID: "ent_2", Date: d, Interval: "bogus", TaskDescription: "Broken"},
		{ID: "ent_3", Date: d.AddDays(1), Interval: "14:00-15:00", TaskDescription: "Dentist"},
	}

	var buf bytes.Buffer
	if err := WriteICS(&buf, entries, time.UTC, time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("WriteICS: %v", err)
	}

	cal, err := ical.ParseCalendar(&buf)
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	first := events[0]
	if p := first.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Algebra (Session 1/2)" {
		t.Errorf("summary = %+v", p)
	}
	start, err := first.GetStartAt()
	if err != nil {
		t.Fatal(err)
	}
	end, err := first.GetEndAt()
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2026, time.October, 20, 9, 0, 0, 0, time.UTC)) || end.Sub(start) != 90*time.Minute {
		t.Errorf("event spans %v to %v", start, end)
	}
	if p := first.GetProperty(ical.ComponentPropertyUniqueId); p == nil || p.Value != "ent_1@studyflow" {
		t.Errorf("uid = %+v", p)
	}
	if p := events[1].GetProperty(ical.ComponentPropertyCategories); p != nil {
		t.Errorf("manual entry should carry no category, got %q", p.Value)
	}
}
