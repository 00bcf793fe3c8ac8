package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studyflow/internal/clock"
	"studyflow/internal/date"
	"studyflow/internal/domain"
)

var ErrNotFound = errors.New("not found")

// EnsureSchema creates tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
PRAGMA journal_mode=WAL;
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  priority TEXT NOT NULL CHECK(priority IN ('high','medium','low')) DEFAULT 'medium',
  deadline TIMESTAMP NOT NULL,
  estimated_time INTEGER NOT NULL DEFAULT 60,
  completed INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, deadline);
CREATE TABLE IF NOT EXISTS schedule_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  schedule_date TEXT NOT NULL,
  interval_time TEXT NOT NULL,
  task_description TEXT NOT NULL,
  task_id TEXT,
  is_auto_scheduled INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_entries_user_date ON schedule_entries(user_id, schedule_date, interval_time);
CREATE TABLE IF NOT EXISTS time_preferences (
  user_id TEXT PRIMARY KEY,
  available_times TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := db.Exec(schema)
	return err
}

// TaskSource is read access to a user's tasks.
type TaskSource interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	GetTask(ctx context.Context, userID, id string) (domain.Task, error)
}

type TaskWriter interface {
	CreateTask(ctx context.Context, t domain.Task) (string, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// ScheduleStore persists schedule entries. A zero from or to date leaves
// that end of the range open.
type ScheduleStore interface {
	ListEntries(ctx context.Context, userID string, from, to date.Date) ([]domain.ScheduleEntry, error)
	InsertEntry(ctx context.Context, e domain.ScheduleEntry) (string, error)
	DeleteEntry(ctx context.Context, userID, id string) error
}

// EntryReplacer deletes one entry and inserts another as a single unit.
type EntryReplacer interface {
	ReplaceEntry(ctx context.Context, oldID string, e domain.ScheduleEntry) (string, error)
}

type AvailabilitySource interface {
	GetAvailability(ctx context.Context, userID string) ([]string, error)
}

type Repository interface {
	TaskSource
	TaskWriter
	ScheduleStore
	EntryReplacer
	AvailabilitySource
	SetAvailability(ctx context.Context, userID string, windows []string) error
	ListUsers(ctx context.Context) ([]string, error)
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

type scanner interface{ Scan(dest ...any) error }

const taskColumns = `id,user_id,title,description,priority,deadline,estimated_time,completed,created_at`

func scanTask(row scanner) (domain.Task, error) {
	var t domain.Task
	var priority string
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &priority, &t.Deadline, &t.EstimatedTime, &t.Completed, &t.CreatedAt)
	t.Priority = domain.Priority(priority)
	return t, err
}

func (r *sqliteRepo) CreateTask(ctx context.Context, t domain.Task) (string, error) {
	id := t.ID
	if id == "" {
		id = "tsk_" + uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.EstimatedTime <= 0 {
		t.EstimatedTime = domain.DefaultSessionMinutes
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (id,user_id,title,description,priority,deadline,estimated_time,completed,created_at)
VALUES (?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
`, id, t.UserID, t.Title, t.Description, string(t.Priority), t.Deadline, t.EstimatedTime, t.Completed)
	return id, err
}

func (r *sqliteRepo) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id=? AND id=?`, userID, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, ErrNotFound
	}
	return t, err
}

func (r *sqliteRepo) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id=? ORDER BY deadline, created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *sqliteRepo) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks SET title=?,description=?,priority=?,deadline=?,estimated_time=?,completed=?
WHERE user_id=? AND id=?`, t.Title, t.Description, string(t.Priority), t.Deadline, t.EstimatedTime, t.Completed, t.UserID, t.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sqliteRepo) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE user_id=? AND id=?", userID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

const entryColumns = `id,user_id,schedule_date,interval_time,task_description,task_id,is_auto_scheduled,created_at`

func scanEntry(row scanner) (domain.ScheduleEntry, error) {
	var e domain.ScheduleEntry
	var taskID sql.NullString
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Interval, &e.TaskDescription, &taskID, &e.IsAutoScheduled, &e.CreatedAt)
	if taskID.Valid {
		e.TaskID = taskID.String
	}
	return e, err
}

func (r *sqliteRepo) ListEntries(ctx context.Context, userID string, from, to date.Date) ([]domain.ScheduleEntry, error) {
	q := `SELECT ` + entryColumns + ` FROM schedule_entries WHERE user_id=?`
	args := []any{userID}
	if !from.IsZero() {
		q += ` AND schedule_date >= ?`
		args = append(args, from.String())
	}
	if !to.IsZero() {
		q += ` AND schedule_date <= ?`
		args = append(args, to.String())
	}
	q += ` ORDER BY schedule_date, interval_time, created_at, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ScheduleEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertEntry stores e, assigning an id when empty. Intervals are stored in
// canonical "HH:MM-HH:MM" form.
func (r *sqliteRepo) InsertEntry(ctx context.Context, e domain.ScheduleEntry) (string, error) {
	return insertEntry(ctx, r.db, e)
}

func (r *sqliteRepo) DeleteEntry(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM schedule_entries WHERE user_id=? AND id=?", userID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ReplaceEntry deletes oldID and inserts e in one transaction.
func (r *sqliteRepo) ReplaceEntry(ctx context.Context, oldID string, e domain.ScheduleEntry) (id string, err error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "DELETE FROM schedule_entries WHERE user_id=? AND id=?", e.UserID, oldID)
	if err != nil {
		return "", err
	}
	if err = requireRow(res); err != nil {
		return "", err
	}
	if id, err = insertEntry(ctx, tx, e); err != nil {
		return "", err
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEntry(ctx context.Context, db execer, e domain.ScheduleEntry) (string, error) {
	id := e.ID
	if id == "" {
		id = "ent_" + uuid.NewString()
	}
	var taskID any
	if e.TaskID != "" {
		taskID = e.TaskID
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO schedule_entries (id,user_id,schedule_date,interval_time,task_description,task_id,is_auto_scheduled,created_at)
VALUES (?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
`, id, e.UserID, e.Date.String(), clock.Normalize(e.Interval), e.TaskDescription, taskID, e.IsAutoScheduled)
	return id, err
}

func (r *sqliteRepo) GetAvailability(ctx context.Context, userID string) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, "SELECT available_times FROM time_preferences WHERE user_id=?", userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var windows []string
	if err := json.Unmarshal([]byte(raw), &windows); err != nil {
		return nil, fmt.Errorf("decode availability for %s: %w", userID, err)
	}
	return windows, nil
}

// SetAvailability upserts the user's windows, normalizing each to canonical form.
func (r *sqliteRepo) SetAvailability(ctx context.Context, userID string, windows []string) error {
	canon := make([]string, 0, len(windows))
	for _, w := range windows {
		canon = append(canon, clock.Normalize(w))
	}
	raw, err := json.Marshal(canon)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO time_preferences (user_id, available_times, updated_at) VALUES (?,?,?)
ON CONFLICT(user_id) DO UPDATE SET available_times=excluded.available_times, updated_at=excluded.updated_at
`, userID, string(raw), time.Now().UTC())
	return err
}

// ListUsers returns every user with saved availability.
func (r *sqliteRepo) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT user_id FROM time_preferences ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
