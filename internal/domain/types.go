package domain

import (
	"strings"
	"time"

	"studyflow/internal/clock"
	"studyflow/internal/date"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight orders priorities for scheduling: high=3, medium=2, low=1.
// Unknown values weigh 0 and sort last.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ParsePriority accepts any casing and reports whether s named a priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Weight() > 0
}

// DefaultSessionMinutes is used when a task carries no usable estimate.
const DefaultSessionMinutes = 60

type Task struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Priority      Priority  `json:"priority"`
	Deadline      time.Time `json:"deadline"`
	EstimatedTime int       `json:"estimated_time"` // minutes
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"created_at"`
}

// EffectiveDuration returns EstimatedTime, or the default when it is not positive.
func (t Task) EffectiveDuration() int {
	if t.EstimatedTime > 0 {
		return t.EstimatedTime
	}
	return DefaultSessionMinutes
}

type ScheduleEntry struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Date            date.Date `json:"date"`
	Interval        string    `json:"interval"` // canonical "HH:MM-HH:MM"
	TaskDescription string    `json:"task_description"`
	TaskID          string    `json:"task_id,omitempty"`
	IsAutoScheduled bool      `json:"is_auto_scheduled"`
	CreatedAt       time.Time `json:"created_at"`
}

// Span parses the entry's interval string.
func (e ScheduleEntry) Span() (clock.Interval, bool) {
	return clock.ParseInterval(e.Interval)
}
