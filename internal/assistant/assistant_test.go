package assistant

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"studyflow/internal/date"
	"studyflow/internal/domain"
	"studyflow/internal/reschedule"
	"studyflow/internal/store"
)

var now = time.Date(2026, time.October, 19, 10, 15, 0, 0, time.UTC)

func newTestAssistant(t *testing.T) (*Assistant, store.Repository) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "assistant.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := store.NewSQLiteRepo(db)

	clock := func() time.Time { return now }
	mover := reschedule.NewExecutor(repo, repo, repo)
	mover.Now = clock
	a := New(repo, repo, mover)
	a.Now = clock
	return a, repo
}

func addEntry(t *testing.T, repo store.Repository, d date.Date, interval, desc string) string {
	t.Helper()
	id, err := repo.InsertEntry(context.Background(), domain.ScheduleEntry{
		UserID: "u1", Date: d, Interval: interval, TaskDescription: desc, IsAutoScheduled: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestHandleUserMessageMovesEntry(t *testing.T) {
	ctx := context.Background()
	a, repo := newTestAssistant(t)
	today := date.Of(now)
	tomorrow := today.AddDays(1)

	if err := repo.SetAvailability(ctx, "u1", []string{"09:00-12:00", "14:00-16:00"}); err != nil {
		t.Fatal(err)
	}
	oldID := addEntry(t, repo, today, "11:00-12:00", "Algebra practice")

	reply := a.HandleUserMessage(ctx, "move algebra to tomorrow 14:30", "u1")
	want := "Rescheduled “Algebra practice” to 2026-10-20 at 14:30-15:30."
	if reply != want {
		t.Fatalf("reply = %q, want %q", reply, want)
	}

	entries, err := repo.ListEntries(ctx, "u1", date.Date{}, date.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	e := entries[0]
	if e.ID == oldID || !e.Date.Equal(tomorrow) || e.Interval != "14:30-15:30" || e.TaskDescription != "Algebra practice" {
		t.Errorf("moved entry = %+v", e)
	}
}

func TestHandleUserMessageMoveFailures(t *testing.T) {
	ctx := context.Background()
	a, repo := newTestAssistant(t)
	addEntry(t, repo, date.Of(now), "11:00-12:00", "Algebra practice")

	reply := a.HandleUserMessage(ctx, "move algebra to tomorrow", "u1")
	if !strings.Contains(reply, "available times") {
		t.Errorf("missing availability reply = %q", reply)
	}

	reply = a.HandleUserMessage(ctx, "move chemistry to tomorrow", "u1")
	if !strings.HasPrefix(reply, "I couldn’t find a scheduled item matching “chemistry”") {
		t.Errorf("not found reply = %q", reply)
	}

	if err := repo.SetAvailability(ctx, "u1", []string{"09:00-09:30"}); err != nil {
		t.Fatal(err)
	}
	reply = a.HandleUserMessage(ctx, "move algebra to tomorrow", "u1")
	if reply != "No free slots available on 2026-10-20 for a 60-minute session." {
		t.Errorf("no slot reply = %q", reply)
	}
}

func TestHandleUserMessageStatusNow(t *testing.T) {
	ctx := context.Background()
	today := date.Of(now)

	tests := []struct {
		name    string
		entries map[string]string
		want    string
	}{
		{"nothing today", nil, "You have nothing scheduled today 🎉"},
		{"running now", map[string]string{"10:00-11:00": "Essay"}, "Right now: “Essay” (10:00 - 11:00)."},
		{"next later", map[string]string{"09:00-10:00": "Reading", "13:00-14:00": "Lab"}, "Next up: “Lab” at 13:00 - 14:00."},
		{"all done", map[string]string{"08:00-09:00": "Reading"}, "You’ve finished all tasks for today. Nice work! 🎉"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, repo := newTestAssistant(t)
			for iv, desc := range tc.entries {
				addEntry(t, repo, today, iv, desc)
			}
			addEntry(t, repo, today.AddDays(1), "09:00-10:00", "Tomorrow only")

			if got := a.HandleUserMessage(ctx, "What should I do now?", "u1"); got != tc.want {
				t.Errorf("reply = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHandleUserMessageStatusNext(t *testing.T) {
	ctx := context.Background()
	today := date.Of(now)

	a, repo := newTestAssistant(t)
	if got := a.HandleUserMessage(ctx, "what's next", "u1"); got != "No upcoming tasks scheduled in the next day." {
		t.Errorf("empty reply = %q", got)
	}

	addEntry(t, repo, today, "10:00-11:00", "Essay")
	addEntry(t, repo, today.AddDays(1), "09:00-10:00", "Reading")
	if got := a.HandleUserMessage(ctx, "next task?", "u1"); got != "Next is tomorrow: “Reading” at 09:00 - 10:00." {
		t.Errorf("tomorrow reply = %q", got)
	}

	addEntry(t, repo, today, "15:00-16:00", "Lab")
	if got := a.HandleUserMessage(ctx, "whats next", "u1"); got != "Next today: “Lab” at 15:00 - 16:00." {
		t.Errorf("today reply = %q", got)
	}
}

func TestHandleUserMessageAddTask(t *testing.T) {
	ctx := context.Background()
	a, repo := newTestAssistant(t)

	reply := a.HandleUserMessage(ctx, "Add task: physics problems high priority 90 mins", "u1")
	if !strings.Contains(reply, "“physics problems”") {
		t.Errorf("reply = %q", reply)
	}
	tasks, err := repo.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Priority != domain.PriorityHigh || tasks[0].EstimatedTime != 90 {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestHandleUserMessageRequiresUser(t *testing.T) {
	a, _ := newTestAssistant(t)
	for _, text := range []string{"what should i do now", "move x to today", "hello"} {
		if got := a.HandleUserMessage(context.Background(), text, ""); got != signInReply {
			t.Errorf("%q: reply = %q", text, got)
		}
	}
}

func TestChatRotatesReplies(t *testing.T) {
	a, _ := newTestAssistant(t)
	seen := map[string]bool{}
	for i := 0; i < len(chatReplies); i++ {
		got := a.HandleUserMessage(context.Background(), "thanks!", "u1")
		if got == "" {
			t.Fatal("empty chat reply")
		}
		seen[got] = true
	}
	if len(seen) != len(chatReplies) {
		t.Errorf("saw %d distinct replies, want %d", len(seen), len(chatReplies))
	}
	if got := a.HandleUserMessage(context.Background(), "help me", "u1"); got != helpReply {
		t.Errorf("help reply = %q", got)
	}
}
