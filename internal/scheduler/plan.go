package scheduler

import (
	"fmt"
	"maps"
	"sort"
	"time"

	"studyflow/internal/availability"
	"studyflow/internal/clock"
	"studyflow/internal/date"
	"studyflow/internal/domain"
	"studyflow/internal/slot"
)

// Options are the fixed policies of a bulk scheduling run.
type Options struct {
	SessionMinutes     int  // longest single session; longer tasks split across days
	Step               int  // slot search granularity in minutes
	DeadlineMarginDays int  // last session lands at least this many days before the deadline
	TodayBufferMinutes int  // same-day sessions start no earlier than now plus this
	SkipWeekends       bool // leave Saturdays and Sundays empty
}

func DefaultOptions() Options {
	return Options{
		SessionMinutes:     60,
		Step:               slot.BulkStep,
		DeadlineMarginDays: 2,
		TodayBufferMinutes: 60,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.SessionMinutes <= 0 {
		o.SessionMinutes = d.SessionMinutes
	}
	if o.Step <= 0 {
		o.Step = d.Step
	}
	if o.DeadlineMarginDays < 0 {
		o.DeadlineMarginDays = d.DeadlineMarginDays
	}
	if o.TodayBufferMinutes < 0 {
		o.TodayBufferMinutes = d.TodayBufferMinutes
	}
	return o
}

type Request struct {
	UserID       string
	Tasks        []domain.Task
	Availability []string
	Existing     []domain.ScheduleEntry
	Now          time.Time
}

// Shortfall reports a task whose sessions could not all be placed before
// its latest permissible date.
type Shortfall struct {
	TaskID         string    `json:"task_id"`
	Title          string    `json:"title"`
	SessionsNeeded int       `json:"sessions_needed"`
	SessionsPlaced int       `json:"sessions_placed"`
	LatestDate     date.Date `json:"latest_date"`
}

type Result struct {
	Entries    []domain.ScheduleEntry `json:"entries"`
	Shortfalls []Shortfall            `json:"shortfalls"`
}

// occupancy maps a date to the intervals already claimed on it. Values are
// never mutated in place; with returns a new occupancy.
type occupancy map[string][]clock.Interval

func newOccupancy(entries []domain.ScheduleEntry) occupancy {
	occ := occupancy{}
	for _, e := range entries {
		iv, ok := e.Span()
		if !ok {
			continue
		}
		k := e.Date.String()
		occ[k] = append(occ[k], iv)
	}
	return occ
}

func (o occupancy) on(d date.Date) []clock.Interval { return o[d.String()] }

func (o occupancy) with(d date.Date, iv clock.Interval) occupancy {
	next := maps.Clone(o)
	k := d.String()
	ivs := make([]clock.Interval, 0, len(o[k])+1)
	next[k] = append(append(ivs, o[k]...), iv)
	return next
}

// plan is the accumulator threaded through the fold over tasks.
type plan struct {
	occ        occupancy
	entries    []domain.ScheduleEntry
	shortfalls []Shortfall
}

// ScheduleAll places every pending task into sessions across the days from
// today up to each task's deadline minus the margin. Output depends only on
// the request and options.
func ScheduleAll(req Request, opts Options) Result {
	opts = opts.normalized()
	windows := availability.Windows(req.Availability)
	today := date.Of(req.Now)
	nowMin := clock.MinutesOf(req.Now)

	acc := plan{occ: newOccupancy(req.Existing)}
	for _, t := range Pending(req.Tasks, req.Existing) {
		acc = placeTask(acc, t, req.UserID, windows, today, nowMin, opts)
	}
	return Result{Entries: acc.entries, Shortfalls: acc.shortfalls}
}

// Pending drops completed tasks and tasks already linked from an existing
// entry, then orders the rest by priority weight descending and deadline
// ascending. Ties keep input order.
func Pending(tasks []domain.Task, existing []domain.ScheduleEntry) []domain.Task {
	scheduled := make(map[string]bool, len(existing))
	for _, e := range existing {
		if e.TaskID != "" {
			scheduled[e.TaskID] = true
		}
	}
	var out []domain.Task
	for _, t := range tasks {
		if t.Completed || scheduled[t.ID] {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := out[i].Priority.Weight(), out[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out
}

// SessionsNeeded returns how many sessions of at most sessionMinutes cover
// the task's duration.
func SessionsNeeded(duration, sessionMinutes int) int {
	n := duration / sessionMinutes
	if duration%sessionMinutes != 0 {
		n++
	}
	return n
}

func placeTask(acc plan, t domain.Task, userID string, windows []clock.Interval, today date.Date, nowMin int, opts Options) plan {
	total := t.EffectiveDuration()
	needed := SessionsNeeded(total, opts.SessionMinutes)
	latest := date.Of(t.Deadline).AddDays(-opts.DeadlineMarginDays)
	if t.UserID != "" {
		userID = t.UserID
	}

	placed := 0
	for d := today; !d.After(latest) && placed < needed; d = d.AddDays(1) {
		if opts.SkipWeekends && d.IsWeekend() {
			continue
		}
		minStart := 0
		if d.Equal(today) {
			minStart = nowMin + opts.TodayBufferMinutes
		}
		length := min(opts.SessionMinutes, total-placed*opts.SessionMinutes)
		iv, ok := slot.FindEarliest(windows, acc.occ.on(d), length, minStart, opts.Step)
		if !ok {
			continue
		}
		acc.entries = append(acc.entries, domain.ScheduleEntry{
			UserID:          userID,
			Date:            d,
			Interval:        iv.String(),
			TaskDescription: sessionTitle(t.Title, placed+1, needed),
			TaskID:          t.ID,
			IsAutoScheduled: true,
		})
		acc.occ = acc.occ.with(d, iv)
		placed++
	}

	if placed < needed {
		acc.shortfalls = append(acc.shortfalls, Shortfall{
			TaskID:         t.ID,
			Title:          t.Title,
			SessionsNeeded: needed,
			SessionsPlaced: placed,
			LatestDate:     latest,
		})
	}
	return acc
}

func sessionTitle(title string, k, n int) string {
	if n == 1 {
		return title
	}
	return fmt.Sprintf("%s (Session %d/%d)", title, k, n)
}
