package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"studyflow/internal/apperr"
	"studyflow/internal/assistant"
	"studyflow/internal/clock"
	"studyflow/internal/date"
	"studyflow/internal/domain"
	"studyflow/internal/export"
	"studyflow/internal/reschedule"
	"studyflow/internal/scheduler"
	"studyflow/internal/store"
)

// UserHeader carries the caller's identity. Authentication happens upstream.
const UserHeader = "X-User-ID"

type Deps struct {
	Repo      store.Repository
	Scheduler *scheduler.Service
	Mover     *reschedule.Executor
	Assistant *assistant.Assistant
	Location  *time.Location
}

type counters struct {
	generated    atomic.Int64
	moves        atomic.Int64
	moveFailures atomic.Int64
	chats        atomic.Int64
}

type Server struct {
	r     *chi.Mux
	deps  Deps
	stats counters
}

func NewServer(deps Deps) http.Handler {
	return NewServerWithDebug(deps, false)
}

func NewServerWithDebug(deps Deps, enableDebug bool) http.Handler {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	s := &Server{r: r, deps: deps}

	r.Get("/health", s.health)
	r.Get("/metrics", s.metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/tasks", s.listTasks)
		r.Post("/tasks", s.createTask)
		r.Put("/tasks/{id}", s.updateTask)
		r.Delete("/tasks/{id}", s.deleteTask)

		r.Get("/entries", s.listEntries)
		r.Post("/entries", s.createEntry)
		r.Delete("/entries/{id}", s.deleteEntry)

		r.Get("/availability", s.getAvailability)
		r.Put("/availability", s.putAvailability)

		r.Post("/schedule/generate", s.generate)
		r.Post("/schedule/move", s.move)
		r.Get("/schedule.ics", s.exportICS)

		r.Post("/chat", s.chat)
	})

	if enableDebug {
		r.HandleFunc("/debug/pprof/", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
		r.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		r.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	}

	return r
}

type ctxKey struct{}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserHeader)
		if userID == "" {
			writeError(w, apperr.New(apperr.Unauthenticated, "missing "+UserHeader+" header"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func userOf(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "studyflow_up 1\n")
	fmt.Fprintf(w, "studyflow_entries_generated_total %d\n", s.stats.generated.Load())
	fmt.Fprintf(w, "studyflow_moves_total %d\n", s.stats.moves.Load())
	fmt.Fprintf(w, "studyflow_move_failures_total %d\n", s.stats.moveFailures.Load())
	fmt.Fprintf(w, "studyflow_chat_messages_total %d\n", s.stats.chats.Load())
}

type taskReq struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Priority      *string    `json:"priority"`
	Deadline      *time.Time `json:"deadline"`
	EstimatedTime *int       `json:"estimated_time"`
	Completed     *bool      `json:"completed"`
}

// apply copies the fields present in the request onto t.
func (req taskReq) apply(t *domain.Task) error {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		p, ok := domain.ParsePriority(*req.Priority)
		if !ok {
			return apperr.Newf(apperr.InvalidInput, "invalid priority %q: expected high, medium or low", *req.Priority)
		}
		t.Priority = p
	}
	if req.Deadline != nil {
		t.Deadline = *req.Deadline
	}
	if req.EstimatedTime != nil {
		t.EstimatedTime = *req.EstimatedTime
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	if t.Title == "" {
		return apperr.New(apperr.InvalidInput, "title is required")
	}
	if t.Deadline.IsZero() {
		return apperr.New(apperr.InvalidInput, "deadline is required")
	}
	return nil
}

type idResp struct {
	ID string `json:"id"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.deps.Repo.ListTasks(r.Context(), userOf(r))
	if err != nil {
		writeError(w, storeError(err))
		return
	}
	writeJSON(w, 200, nonNil(tasks))
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	t := domain.Task{UserID: userOf(r)}
	if err := req.apply(&t); err != nil {
		writeError(w, err)
		return
	}
	id, err := s.deps.Repo.CreateTask(r.Context(), t)
	if err != nil {
		writeError(w, storeError(err))
		return
	}
	writeJSON(w, http.StatusCreated, idResp{ID: id})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Repo.GetTask(r.Context(), userOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, storeError(err))
		return
	}
	var req taskReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if err := req.apply(&t); err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.Repo.UpdateTask(r.Context(), t); err != nil {
		writeError(w, storeError(err))
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repo.DeleteTask(r.Context(), userOf(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, storeError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := s.deps.Repo.ListEntries(r.Context(), userOf(r), from, to)
	if err != nil {
		writeError(w, storeError(err))
		return
	}
	writeJSON(w, 200, nonNil(entries))
}

type entryReq struct {
	Date            date.Date `json:"date"`
	Interval        string    `json:"interval"`
	TaskDescription string    `json:"task_description"`
	TaskID          string    `json:"task_id"`
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	var req entryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	e, err := s.deps.Mover.AddManualEntry(r.Context(), domain.ScheduleEntry{
		UserID:          userOf(r),
		Date:            req.Date,
		Interval:        req.Interval,
		TaskDescription: req.TaskDescription,
		TaskID:          req.TaskID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Repo.DeleteEntry(r.Context(), userOf(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, storeError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type availabilityBody struct {
	AvailableTimes []string `json:"available_times"`
}

func (s *Server) getAvailability(w http.ResponseWriter, r *http.Request) {
	windows, err := s.deps.Repo.GetAvailability(r.Context(), userOf(r))
	if err != nil {
		writeError(w, storeError(err))
		return
	}
	writeJSON(w, 200, availabilityBody{AvailableTimes: nonNil(windows)})
}

func (s *Server) putAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	for _, win := range req.AvailableTimes {
		if _, ok := clock.ParseInterval(win); !ok {
			writeError(w, apperr.Newf(apperr.InvalidInput, "invalid window %q: expected HH:MM-HH:MM", win))
			return
		}
	}
	if err := s.deps.Repo.SetAvailability(r.Context(), userOf(r), req.AvailableTimes); err != nil {
		writeError(w, storeError(err))
		return
	}
	s.getAvailability(w, r)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Scheduler.Generate(r.Context(), userOf(r))
	s.stats.generated.Add(int64(len(res.Entries)))
	if err != nil {
		writeError(w, err)
		return
	}
	res.Entries = nonNil(res.Entries)
	res.Shortfalls = nonNil(res.Shortfalls)
	writeJSON(w, 200, res)
}

func (s *Server) move(w http.ResponseWriter, r *http.Request) {
	var req reschedule.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	req.UserID = userOf(r)
	moved, err := s.deps.Mover.ExecuteMove(r.Context(), req)
	if err != nil {
		s.stats.moveFailures.Add(1)
		writeError(w, err)
		return
	}
	s.stats.moves.Add(1)
	writeJSON(w, 200, moved)
}

type chatReq struct {
	Text string `json:"text"`
}

type chatResp struct {
	Reply string `json:"reply"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s.stats.chats.Add(1)
	writeJSON(w, 200, chatResp{Reply: s.deps.Assistant.HandleUserMessage(r.Context(), req.Text, userOf(r))})
}

func (s *Server) exportICS(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := s.deps.Repo.ListEntries(r.Context(), userOf(r), from, to)
	if err != nil {
		writeError(w, storeError(err))
		return
	}
	w.Header().Set("content-type", "text/calendar; charset=utf-8")
	w.Header().Set("content-disposition", `attachment; filename="schedule.ics"`)
	if err := export.WriteICS(w, entries, s.deps.Location, time.Now()); err != nil {
		log.Error().Err(err).Str("user_id", userOf(r)).Msg("write ics")
	}
}

func dateRange(r *http.Request) (from, to date.Date, err error) {
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		if from, err = date.Parse(v); err != nil {
			return from, to, apperr.New(apperr.InvalidInput, err.Error())
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = date.Parse(v); err != nil {
			return from, to, apperr.New(apperr.InvalidInput, err.Error())
		}
	}
	return from, to, nil
}

func storeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.NotFound, "not found")
	}
	return apperr.Store(err)
}

func writeError(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		e = apperr.Store(err)
	}
	status := apperr.HTTPStatus(e)
	if status >= 500 {
		log.Error().Err(err).Str("code", e.Code).Msg("request failed")
	}
	writeJSON(w, status, e)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
