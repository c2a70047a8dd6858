// Package daemon provides the long-running background budget monitor service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/theirongolddev/pburn/internal/budget"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/store"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	CachePath    string // SQLite database holding the cache and manual expenses
	UseCache     bool
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Engine       budget.Engine
	AsOf         time.Time // fixed evaluation date; zero means today
}

// LoaderFunc loads the current project set.
type LoaderFunc func() ([]model.Project, error)

// Snapshot is a compact portfolio state for status/event payloads.
type Snapshot struct {
	At             time.Time       `json:"at"`
	AsOf           time.Time       `json:"as_of"`
	Projects       int             `json:"projects"`
	Invalid        int             `json:"invalid"`
	OverBudget     int             `json:"over_budget"`
	ProjectedOver  int             `json:"projected_over"`
	TotalBudget    decimal.Decimal `json:"total_budget"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	PercentSpent   model.Ratio     `json:"percent_spent"`
	DailyBurnRate  decimal.Decimal `json:"daily_burn_rate"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Projects      int             `json:"projects"`
	Invalid       int             `json:"invalid"`
	OverBudget    int             `json:"over_budget"`
	ProjectedOver int             `json:"projected_over"`
	TotalBudget   decimal.Decimal `json:"total_budget"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
}

func (d Delta) isZero() bool {
	return d.Projects == 0 &&
		d.Invalid == 0 &&
		d.OverBudget == 0 &&
		d.ProjectedOver == 0 &&
		d.TotalBudget.IsZero() &&
		d.TotalSpent.IsZero()
}

// Event types.
const (
	EventSnapshot       = "snapshot"
	EventPortfolioDelta = "portfolio_delta"
)

// Event is emitted whenever the portfolio snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	// WentOver lists projects that crossed into over budget since the
	// previous poll.
	WentOver []string `json:"went_over,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	Policy          string    `json:"negative_amounts"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg  Config
	log  *logrus.Logger
	load LoaderFunc
	now  func() time.Time

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	reports     []model.ProjectReport
	overBudget  map[string]bool
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, log *logrus.Logger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if log == nil {
		log = logrus.New()
	}

	s := &Service{
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		startedAt:  time.Now(),
		overBudget: make(map[string]bool),
		subs:       make(map[int]chan Event),
	}
	s.load = s.loadProjects
	return s
}

// Run starts HTTP endpoints and the refresh schedule until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	cronLog := cron.PrintfLogger(s.log)
	sched := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := sched.AddFunc("@every "+s.cfg.Interval.String(), s.pollOnce); err != nil {
		return fmt.Errorf("scheduling refresh: %w", err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	s.log.WithFields(logrus.Fields{
		"addr":     s.cfg.Addr,
		"interval": s.cfg.Interval.String(),
		"data_dir": s.cfg.DataDir,
	}).Info("daemon started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// asOf is the calendar date each poll evaluates against.
func (s *Service) asOf() time.Time {
	if !s.cfg.AsOf.IsZero() {
		return budget.DateOf(s.cfg.AsOf)
	}
	return budget.DateOf(s.now())
}

func (s *Service) pollOnce() {
	start := s.now()
	projects, err := s.load()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = start
		s.pollCount++
		s.mu.Unlock()
		s.log.WithError(err).Warn("poll failed")
		return
	}

	asOf := s.asOf()
	reports := pipeline.Analyze(projects, s.cfg.Engine, asOf)
	snap := snapshotFromStats(pipeline.Summarize(reports), start, asOf)

	over := make(map[string]bool)
	for _, r := range reports {
		if r.Valid() && r.Metrics.IsOverBudget {
			over[r.Project.ID] = true
		}
	}

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot
	prevOver := s.overBudget

	s.hasSnapshot = true
	s.snapshot = snap
	s.reports = reports
	s.overBudget = over
	s.lastPollAt = start
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: start, Snapshot: snap}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		wentOver := newlyOver(prevOver, over)
		if !delta.isZero() || len(wentOver) > 0 {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      EventPortfolioDelta,
				Timestamp: start,
				Snapshot:  snap,
				Delta:     delta,
				WentOver:  wentOver,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"projects":    snap.Projects,
		"invalid":     snap.Invalid,
		"over_budget": snap.OverBudget,
		"took":        s.now().Sub(start).String(),
	}).Debug("poll complete")

	if publish {
		if len(ev.WentOver) > 0 {
			s.log.WithField("projects", ev.WentOver).Warn("projects went over budget")
		}
		s.publishEvent(ev)
	}
}

func (s *Service) loadProjects() ([]model.Project, error) {
	var cache *store.Cache
	if s.cfg.CachePath != "" {
		c, err := store.Open(s.cfg.CachePath)
		if err != nil {
			s.log.WithError(err).Warn("cache unavailable")
		} else {
			cache = c
			defer func() { _ = cache.Close() }()
		}
	}

	if cache != nil && s.cfg.UseCache {
		cr, err := pipeline.LoadWithCache(s.cfg.DataDir, cache, nil)
		if err == nil {
			return cr.Projects, nil
		}
		s.log.WithError(err).Warn("cached load failed, doing full parse")
	}

	result, err := pipeline.Load(s.cfg.DataDir, nil)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		if err := pipeline.MergeManualExpenses(result, cache); err != nil {
			s.log.WithError(err).Warn("manual expenses not applied")
		}
	}
	return result.Projects, nil
}

func snapshotFromStats(stats model.PortfolioStats, at, asOf time.Time) Snapshot {
	return Snapshot{
		At:             at,
		AsOf:           asOf,
		Projects:       stats.Projects,
		Invalid:        stats.InvalidProjects,
		OverBudget:     stats.OverBudget,
		ProjectedOver:  stats.ProjectedOver,
		TotalBudget:    stats.TotalBudget,
		TotalSpent:     stats.TotalSpent,
		TotalRemaining: stats.TotalRemaining,
		PercentSpent:   stats.PercentSpent,
		DailyBurnRate:  stats.DailyBurnRate,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Projects:      curr.Projects - prev.Projects,
		Invalid:       curr.Invalid - prev.Invalid,
		OverBudget:    curr.OverBudget - prev.OverBudget,
		ProjectedOver: curr.ProjectedOver - prev.ProjectedOver,
		TotalBudget:   curr.TotalBudget.Sub(prev.TotalBudget),
		TotalSpent:    curr.TotalSpent.Sub(prev.TotalSpent),
	}
}

func newlyOver(prev, curr map[string]bool) []string {
	var ids []string
	for id := range curr {
		if !prev[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Policy:          s.cfg.Engine.Policy.String(),
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) currentReports() []model.ProjectReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
