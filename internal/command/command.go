// Package command classifies assistant utterances and extracts the
// parameters of move and add-task requests.
package command

import (
	"regexp"
	"strings"

	"studyflow/internal/clock"
	"studyflow/internal/date"
)

type Intent string

const (
	StatusNow  Intent = "status_now"
	StatusNext Intent = "status_next"
	Move       Intent = "move"
	AddTask    Intent = "add_task"
	Chat       Intent = "chat"
)

type Result struct {
	Intent  Intent `json:"intent"`
	RawText string `json:"raw_text"`
}

// Classify applies the intent rules in order; the first match wins.
func Classify(text string) Result {
	raw := strings.TrimSpace(text)
	t := strings.ToLower(raw)
	res := Result{Intent: Chat, RawText: raw}

	switch {
	case strings.Contains(t, "what should i do now"),
		strings.Contains(t, "what should i be doing"),
		strings.Contains(t, "what") && strings.Contains(t, "do") && strings.Contains(t, "now"):
		res.Intent = StatusNow
	case strings.Contains(t, "what's next"),
		strings.Contains(t, "what’s next"),
		strings.Contains(t, "whats next"),
		strings.Contains(t, "next task"):
		res.Intent = StatusNext
	case strings.HasPrefix(t, "move "), strings.HasPrefix(t, "reschedule "):
		res.Intent = Move
	case strings.HasPrefix(t, "add task"):
		res.Intent = AddTask
	}
	return res
}

// MoveCommand holds what a "move …" utterance asked for. Identifier is the
// normalized form (hyphens spaced as in the display interval form);
// RawIdentifier is the text as typed.
type MoveCommand struct {
	Identifier    string    `json:"identifier"`
	RawIdentifier string    `json:"raw_identifier"`
	TargetDate    date.Date `json:"target_date"`
	TargetTime    *int      `json:"target_time,omitempty"`
	HasDate       bool      `json:"has_date"`
}

var (
	moveKeyword = regexp.MustCompile(`(?i)^(move|reschedule)\s+`)
	toSep       = regexp.MustCompile(`(?i) to `)
	spaces      = regexp.MustCompile(`\s{2,}`)
	isoDate     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	dmyDate     = regexp.MustCompile(`\b(\d{2}-\d{2}-\d{4})\b`)
	todayWord   = regexp.MustCompile(`(?i)\btoday\b`)
	tomorrowRe  = regexp.MustCompile(`(?i)\btomorrow\b`)
	timeToken   = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
)

// ParseMoveCommand extracts the identifier, target date and optional start
// time from text. Relative dates resolve against today; with no date in
// the text the target is today.
func ParseMoveCommand(text string, today date.Date) MoveCommand {
	body := strings.TrimSpace(moveKeyword.ReplaceAllString(strings.TrimSpace(text), ""))

	ident, tail := body, ""
	if m := toSep.FindAllStringIndex(body, -1); len(m) > 0 {
		last := m[len(m)-1]
		ident = strings.TrimSpace(body[:last[0]])
		tail = strings.TrimSpace(body[last[1]:])
	}

	cmd := MoveCommand{
		Identifier:    NormalizeIdentifier(ident),
		RawIdentifier: ident,
		TargetDate:    today,
	}
	if tail == "" {
		return cmd
	}

	if d, ok := parseDate(tail, today); ok {
		cmd.TargetDate = d
		cmd.HasDate = true
	}
	if m := timeToken.FindStringSubmatch(tail); m != nil {
		mins := clock.ToMinutes(m[1] + ":" + m[2])
		cmd.TargetTime = &mins
	}
	return cmd
}

// NormalizeIdentifier spaces every hyphen and collapses runs of spaces, so
// "09:00-10:00" reads as the display form "09:00 - 10:00".
func NormalizeIdentifier(s string) string {
	s = strings.ReplaceAll(s, "-", " - ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

func parseDate(tail string, today date.Date) (date.Date, bool) {
	if m := isoDate.FindString(tail); m != "" {
		if d, err := date.Parse(m); err == nil {
			return d, true
		}
	}
	if m := dmyDate.FindString(tail); m != "" {
		if d, err := date.ParseDMY(m); err == nil {
			return d, true
		}
	}
	switch {
	case todayWord.MatchString(tail):
		return today, true
	case tomorrowRe.MatchString(tail):
		return today.AddDays(1), true
	}
	return date.Date{}, false
}
