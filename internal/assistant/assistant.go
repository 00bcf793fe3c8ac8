// Package assistant answers chat messages about a user's schedule: what to
// do now, what comes next, moving an entry and adding a task.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"studyflow/internal/apperr"
	"studyflow/internal/availability"
	"studyflow/internal/clock"
	"studyflow/internal/command"
	"studyflow/internal/date"
	"studyflow/internal/domain"
	"studyflow/internal/reschedule"
	"studyflow/internal/store"
)

const signInReply = "Please sign in to access your schedule."

var chatReplies = []string{
	"I understand! Let me help you optimize your study schedule.",
	"I'm here to help make your studying more efficient. Ask me “What should I do now?” or “Move algebra to tomorrow 14:30”.",
	"That's a great approach to productivity! How else can I assist?",
}

const helpReply = "I can help you with:\n• “What should I do now?”\n• “What’s my next task?”\n• “Move algebra to tomorrow 14:30”\n• “Reschedule 09:00 - 10:00 to today 15:00”\n• “Add task: study biology high priority 2 hours”"

type Assistant struct {
	entries store.ScheduleStore
	tasks   store.TaskWriter
	mover   *reschedule.Executor

	Now func() time.Time

	turn atomic.Uint64
}

func New(entries store.ScheduleStore, tasks store.TaskWriter, mover *reschedule.Executor) *Assistant {
	return &Assistant{entries: entries, tasks: tasks, mover: mover, Now: time.Now}
}

// HandleUserMessage classifies text and returns the reply for userID. It
// never fails; errors become replies.
func (a *Assistant) HandleUserMessage(ctx context.Context, text, userID string) string {
	if userID == "" {
		return signInReply
	}
	res := command.Classify(text)
	log.Debug().Str("user_id", userID).Str("intent", string(res.Intent)).Msg("assistant message")

	switch res.Intent {
	case command.StatusNow:
		return a.statusNow(ctx, userID)
	case command.StatusNext:
		return a.statusNext(ctx, userID)
	case command.Move:
		return a.move(ctx, res.RawText, userID)
	case command.AddTask:
		return a.addTask(ctx, res.RawText, userID)
	}
	return a.chat(res.RawText)
}

func (a *Assistant) statusNow(ctx context.Context, userID string) string {
	now := a.Now()
	today := date.Of(now)
	entries, err := a.entries.ListEntries(ctx, userID, today, today)
	if err != nil {
		return failure(userID, err)
	}
	items := availability.EntriesOn(today, entries)
	if len(items) == 0 {
		return "You have nothing scheduled today 🎉"
	}
	e, current, ok := currentOrNext(items, clock.MinutesOf(now))
	switch {
	case !ok:
		return "You’ve finished all tasks for today. Nice work! 🎉"
	case current:
		return fmt.Sprintf("Right now: “%s” (%s).", e.TaskDescription, display(e))
	}
	return fmt.Sprintf("Next up: “%s” at %s.", e.TaskDescription, display(e))
}

func (a *Assistant) statusNext(ctx context.Context, userID string) string {
	now := a.Now()
	today := date.Of(now)
	tomorrow := today.AddDays(1)
	entries, err := a.entries.ListEntries(ctx, userID, today, tomorrow)
	if err != nil {
		return failure(userID, err)
	}
	if len(entries) == 0 {
		return "No upcoming tasks scheduled in the next day."
	}
	if e, ok := startingAfter(availability.EntriesOn(today, entries), clock.MinutesOf(now)); ok {
		return fmt.Sprintf("Next today: “%s” at %s.", e.TaskDescription, display(e))
	}
	if later := availability.EntriesOn(tomorrow, entries); len(later) > 0 {
		return fmt.Sprintf("Next is tomorrow: “%s” at %s.", later[0].TaskDescription, display(later[0]))
	}
	return "No upcoming tasks scheduled soon."
}

func (a *Assistant) move(ctx context.Context, text, userID string) string {
	cmd := command.ParseMoveCommand(text, date.Of(a.Now()))
	moved, err := a.mover.ExecuteMove(ctx, reschedule.MoveRequest{
		UserID:            userID,
		Identifier:        cmd.RawIdentifier,
		TargetDate:        cmd.TargetDate,
		TargetTimeMinutes: cmd.TargetTime,
	})
	if err != nil {
		return failure(userID, err)
	}
	return fmt.Sprintf("Rescheduled “%s” to %s at %s.", moved.TaskDescription, moved.Date, moved.Interval)
}

func (a *Assistant) addTask(ctx context.Context, text, userID string) string {
	t, ok := command.ParseAddTask(text, userID, a.Now())
	if !ok {
		return helpReply
	}
	if _, err := a.tasks.CreateTask(ctx, t); err != nil {
		return failure(userID, apperr.Store(err))
	}
	return fmt.Sprintf("Great! I've added “%s” (%s priority, %d min, due %s). I'll factor it into your next schedule.",
		t.Title, t.Priority, t.EstimatedTime, date.Of(t.Deadline))
}

func (a *Assistant) chat(text string) string {
	if strings.Contains(strings.ToLower(text), "help") {
		return helpReply
	}
	n := a.turn.Add(1) - 1
	return chatReplies[n%uint64(len(chatReplies))]
}

// currentOrNext returns the entry running at minute now, or else the first
// one starting after it. Entries must be sorted by start.
func currentOrNext(items []domain.ScheduleEntry, now int) (e domain.ScheduleEntry, current, ok bool) {
	for _, it := range items {
		iv, ok := it.Span()
		if !ok {
			continue
		}
		if iv.Contains(now) {
			return it, true, true
		}
		if now < iv.Start {
			return it, false, true
		}
	}
	return domain.ScheduleEntry{}, false, false
}

func startingAfter(items []domain.ScheduleEntry, now int) (domain.ScheduleEntry, bool) {
	for _, it := range items {
		if iv, ok := it.Span(); ok && now < iv.Start {
			return it, true
		}
	}
	return domain.ScheduleEntry{}, false
}

func display(e domain.ScheduleEntry) string {
	if iv, ok := e.Span(); ok {
		return iv.Display()
	}
	return e.Interval
}

func failure(userID string, err error) string {
	if apperr.CodeOf(err) == "" {
		log.Error().Err(err).Str("user_id", userID).Msg("assistant request failed")
		return "Something went wrong: " + err.Error()
	}
	if apperr.Is(err, apperr.StoreError) {
		log.Error().Err(err).Str("user_id", userID).Msg("assistant store failure")
	}
	return err.Error()
}
