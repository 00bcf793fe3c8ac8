package command

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"studyflow/internal/clock"
	"studyflow/internal/date"
	"studyflow/internal/domain"
)

const defaultTaskTitle = "New Task"

var (
	addTaskPrefix = regexp.MustCompile(`(?i)^add task:?\s*`)
	priorityRe    = regexp.MustCompile(`(?i)\b(high|medium|low) priority\b`)
	deadlineRe    = regexp.MustCompile(`(?i)\b(today|tomorrow)\b`)
	estimateRe    = regexp.MustCompile(`(?i)\b(\d+)\s*(hours?|hrs?|minutes?|mins?)\b`)
)

// ParseAddTask turns "add task: <title> [high|medium|low priority]
// [today|tomorrow] [N hours|mins]" into a task for userID. The deadline is
// the end of the named day, tomorrow by default; the estimate defaults to
// one session.
func ParseAddTask(text, userID string, now time.Time) (domain.Task, bool) {
	t := strings.TrimSpace(text)
	loc := addTaskPrefix.FindStringIndex(t)
	if loc == nil {
		return domain.Task{}, false
	}
	body := strings.TrimSpace(t[loc[1]:])

	task := domain.Task{
		UserID:        userID,
		Priority:      domain.PriorityMedium,
		EstimatedTime: domain.DefaultSessionMinutes,
		Description:   "Added via assistant",
	}

	if m := priorityRe.FindStringSubmatch(body); m != nil {
		task.Priority, _ = domain.ParsePriority(m[1])
	}

	today := date.Of(now)
	due := today.AddDays(1)
	if m := deadlineRe.FindStringSubmatch(body); m != nil && strings.EqualFold(m[1], "today") {
		due = today
	}
	task.Deadline = due.At(clock.MaxMinute, now.Location())

	if m := estimateRe.FindStringSubmatch(body); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			unit := strings.ToLower(m[2])
			if strings.HasPrefix(unit, "h") {
				n *= 60
			}
			task.EstimatedTime = n
		}
	}

	title := body
	for _, re := range []*regexp.Regexp{priorityRe, deadlineRe, estimateRe} {
		title = re.ReplaceAllString(title, "")
	}
	title = strings.TrimSpace(spaces.ReplaceAllString(title, " "))
	title = strings.TrimSpace(strings.TrimSuffix(title, " for"))
	if title == "" || strings.EqualFold(title, "for") {
		title = defaultTaskTitle
	}
	task.Title = title
	return task, true
}
