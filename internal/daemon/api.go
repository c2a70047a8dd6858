package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// ProjectView is one project as served by the projects endpoints.
type ProjectView struct {
	Project    model.Project         `json:"project"`
	Metrics    *model.BudgetMetrics  `json:"metrics,omitempty"`
	Error      string                `json:"error,omitempty"`
	Categories []model.CategoryStats `json:"categories,omitempty"`
}

func viewOf(r model.ProjectReport) ProjectView {
	v := ProjectView{Project: r.Project}
	if r.Valid() {
		m := r.Metrics
		v.Metrics = &m
	} else {
		v.Error = r.Err.Error()
	}
	return v
}

// Router returns the HTTP handler serving the daemon API.
func (s *Service) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/projects", s.handleProjects).Methods(http.MethodGet)
	v1.HandleFunc("/projects/{id}", s.handleProject).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	v1.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// handleProjects serves the filtered, sorted project list. Query parameters
// mirror the CLI flags: search, category (repeatable), status, sort, desc.
func (s *Service) handleProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := q.Get("status")
	if err := pipeline.ValidateStatus(status); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key, err := pipeline.ParseSortKey(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	desc, _ := strconv.ParseBool(q.Get("desc"))

	selected := pipeline.SelectReports(s.currentReports(), pipeline.Query{
		Search:     q.Get("search"),
		Categories: q["category"],
		Status:     status,
	}, key, desc)

	views := make([]ProjectView, 0, len(selected))
	for _, rep := range selected {
		views = append(views, viewOf(rep))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Service) handleProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rep, ok := pipeline.FindReport(s.currentReports(), id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("project %q not found", id))
		return
	}
	v := viewOf(rep)
	v.Categories = pipeline.AggregateCategories(rep.Project.Expenses)
	writeJSON(w, http.StatusOK, v)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}
