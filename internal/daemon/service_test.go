package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theirongolddev/pburn/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testService returns a service fed from *projects on every poll.
func testService(t *testing.T, projects *[]model.Project) *Service {
	t.Helper()
	s := New(Config{
		DataDir:      "/fixtures",
		Interval:     10 * time.Second,
		EventsBuffer: 10,
		AsOf:         day(2023, 4, 18),
	}, quietLogger())
	s.load = func() ([]model.Project, error) { return *projects, nil }
	s.now = func() time.Time { return day(2023, 4, 18).Add(9 * time.Hour) }
	return s
}

func portfolio() []model.Project {
	return []model.Project{
		{
			ID: "1", Title: "Hotel Renovation", Category: "facilities",
			Budget: decimal.NewFromInt(120000), Spent: decimal.NewFromInt(146400),
			StartDate: day(2023, 1, 15), EndDate: day(2023, 6, 30),
			Expenses: []model.Expense{
				{ID: "e1", Amount: decimal.NewFromInt(45000), Category: "Materials"},
				{ID: "e2", Amount: decimal.NewFromInt(15000), Category: "Labor"},
			},
		},
		{
			ID: "2", Title: "Office Complex Design", Category: "development", Status: model.StatusPending,
			Budget: decimal.NewFromInt(85000), Spent: decimal.NewFromInt(42500),
			StartDate: day(2023, 3, 10), EndDate: day(2023, 8, 15),
		},
		{ID: "3", Title: "Undated", Budget: decimal.NewFromInt(10)},
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Projects:    3,
		OverBudget:  1,
		TotalBudget: decimal.NewFromInt(205000),
		TotalSpent:  decimal.RequireFromString("188900.10"),
	}
	curr := Snapshot{
		Projects:    4,
		OverBudget:  2,
		TotalBudget: decimal.NewFromInt(215000),
		TotalSpent:  decimal.RequireFromString("190000.35"),
	}

	delta := diffSnapshots(prev, curr)
	if delta.Projects != 1 {
		t.Fatalf("Projects delta = %d, want 1", delta.Projects)
	}
	if delta.OverBudget != 1 {
		t.Fatalf("OverBudget delta = %d, want 1", delta.OverBudget)
	}
	if !delta.TotalBudget.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("TotalBudget delta = %s, want 10000", delta.TotalBudget)
	}
	if !delta.TotalSpent.Equal(decimal.RequireFromString("1100.25")) {
		t.Fatalf("TotalSpent delta = %s, want 1100.25", delta.TotalSpent)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{DataDir: ".", EventsBuffer: 2}, quietLogger())

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_Events(t *testing.T) {
	projects := portfolio()
	s := testService(t, &projects)

	s.pollOnce()
	s.pollOnce() // unchanged: no event

	projects[1].Spent = decimal.NewFromInt(90000)
	s.pollOnce()

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	status := s.snapshot
	s.mu.RUnlock()

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventSnapshot || events[1].Type != EventPortfolioDelta {
		t.Errorf("event types = %s, %s", events[0].Type, events[1].Type)
	}
	if !events[1].Delta.TotalSpent.Equal(decimal.NewFromInt(47500)) {
		t.Errorf("spent delta = %s, want 47500", events[1].Delta.TotalSpent)
	}
	if len(events[1].WentOver) != 1 || events[1].WentOver[0] != "2" {
		t.Errorf("WentOver = %v, want [2]", events[1].WentOver)
	}
	if status.Invalid != 1 || status.OverBudget != 2 {
		t.Errorf("snapshot = %+v", status)
	}
}

func TestPollOnce_AsOfIsCalendarDate(t *testing.T) {
	projects := portfolio()
	s := testService(t, &projects)
	s.cfg.AsOf = time.Time{}
	s.now = func() time.Time { return time.Date(2023, 4, 18, 17, 45, 12, 0, time.UTC) }

	s.pollOnce()

	st := s.snapshotStatus()
	if want := day(2023, 4, 18); !st.Summary.AsOf.Equal(want) {
		t.Errorf("AsOf = %s, want %s", st.Summary.AsOf, want)
	}
	if !st.Summary.At.Equal(s.now()) {
		t.Errorf("At = %s, want the poll time", st.Summary.At)
	}
}

func TestPollOnce_LoadError(t *testing.T) {
	projects := portfolio()
	s := testService(t, &projects)
	s.load = func() ([]model.Project, error) { return nil, errors.New("disk gone") }

	s.pollOnce()

	st := s.snapshotStatus()
	if st.LastError != "disk gone" || st.PollCount != 1 {
		t.Errorf("status = %+v", st)
	}
	if st.EventCount != 0 {
		t.Errorf("EventCount = %d, want 0", st.EventCount)
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPI(t *testing.T) {
	projects := portfolio()
	s := testService(t, &projects)
	s.pollOnce()
	h := s.Router()

	if rec := get(t, h, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("/healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec := get(t, h, "/v1/status")
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.Summary.Projects != 3 || st.Policy != "reject" {
		t.Errorf("status = %+v", st)
	}
	if !st.Summary.PercentSpent.Defined {
		t.Error("status percent spent decoded as undefined")
	}

	rec = get(t, h, "/v1/projects?sort=alphabetical&status=all")
	var views []ProjectView
	if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
		t.Fatalf("decode projects: %v", err)
	}
	if len(views) != 3 || views[0].Project.ID != "1" || views[2].Project.ID != "3" {
		t.Fatalf("projects = %+v", views)
	}
	if views[2].Error == "" || views[2].Metrics != nil {
		t.Errorf("undated project view = %+v, want error and no metrics", views[2])
	}

	rec = get(t, h, "/v1/projects?status=overbudget")
	views = nil
	_ = json.NewDecoder(rec.Body).Decode(&views)
	if len(views) != 1 || views[0].Project.ID != "1" {
		t.Errorf("overbudget filter = %+v", views)
	}

	if rec := get(t, h, "/v1/projects?status=done"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status filter code = %d, want 400", rec.Code)
	}

	rec = get(t, h, "/v1/projects/1")
	var v ProjectView
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if v.Metrics == nil || !v.Metrics.IsOverBudget || v.Metrics.DaysElapsed != 93 {
		t.Errorf("project 1 metrics = %+v", v.Metrics)
	}
	if len(v.Categories) != 2 || v.Categories[0].Category != "Materials" {
		t.Errorf("categories = %+v", v.Categories)
	}

	if rec := get(t, h, "/v1/projects/404"); rec.Code != http.StatusNotFound {
		t.Errorf("missing project code = %d, want 404", rec.Code)
	}
	if rec := get(t, h, "/v1/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route code = %d, want 404", rec.Code)
	}

	rec = get(t, h, "/v1/events")
	var events []Event
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}
}
