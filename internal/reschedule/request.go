package reschedule

import (
	"strings"

	"studyflow/internal/apperr"
	"studyflow/internal/clock"
	"studyflow/internal/date"
)

// MoveRequest asks to move the entry matching Identifier to TargetDate. A
// zero TargetDate means today; a nil TargetTimeMinutes lets the executor
// pick the earliest free slot.
type MoveRequest struct {
	UserID            string    `json:"user_id"`
	Identifier        string    `json:"identifier"`
	TargetDate        date.Date `json:"target_date"`
	TargetTimeMinutes *int      `json:"target_time_minutes,omitempty"`
}

func (r MoveRequest) Validate() error {
	if r.UserID == "" {
		return apperr.New(apperr.Unauthenticated, "Please sign in to modify your schedule.")
	}
	if strings.TrimSpace(r.Identifier) == "" {
		return apperr.New(apperr.InvalidInput,
			"Please tell me which task to move (e.g., “move algebra to tomorrow 14:30” or “reschedule 09:00 - 10:00 to today 15:00”).")
	}
	if t := r.TargetTimeMinutes; t != nil && (*t < 0 || *t > clock.MaxMinute) {
		return apperr.Newf(apperr.InvalidInput, "Target time %d is outside the day.", *t).
			WithDetails(map[string]any{"target_time_minutes": *t})
	}
	return nil
}
