// Package daemon provides the long-running dashboard service with HTTP/SSE endpoints.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theirongolddev/fincast/internal/advisor"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/poller"
	"github.com/theirongolddev/fincast/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr          string
	SourceDesc    string // shown in /v1/status
	EventsBuffer  int
	HistoryKeep   int
	RecordHistory bool
}

// Summary is a compact dashboard state for status/event payloads.
type Summary struct {
	At                 time.Time `json:"at"`
	Seq                uint64    `json:"seq"`
	Hash               string    `json:"hash,omitempty"`
	Income             float64   `json:"income"`
	TotalExpenses      float64   `json:"total_expenses"`
	SavingsPotential   float64   `json:"savings_potential"`
	RecommendedSavings float64   `json:"recommended_savings"`
	GoalProgressPct    float64   `json:"goal_progress_pct"`
	RiskScore          float64   `json:"risk_score"`
	RiskLevel          string    `json:"risk_level"`
}

// Delta captures summary changes between applied polls.
type Delta struct {
	Income             float64 `json:"income"`
	TotalExpenses      float64 `json:"total_expenses"`
	SavingsPotential   float64 `json:"savings_potential"`
	RecommendedSavings float64 `json:"recommended_savings"`
	RiskScore          float64 `json:"risk_score"`
}

func (d Delta) isZero() bool {
	return d.Income == 0 &&
		d.TotalExpenses == 0 &&
		d.SavingsPotential == 0 &&
		d.RecommendedSavings == 0 &&
		d.RiskScore == 0
}

// Event is emitted whenever the dashboard state changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	State     string    `json:"state"`
	Summary   Summary   `json:"summary"`
	Delta     Delta     `json:"delta"`
	Error     string    `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	StaleCount      int64     `json:"stale_count"`
	Seq             uint64    `json:"seq"`
	State           string    `json:"state"`
	Source          string    `json:"source"`
	Summary         Summary   `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
	HistoryCount    int       `json:"history_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	poller  *poller.Poller
	history *store.History // nil disables history
	advisor advisor.Advisor
	assets  *ristretto.Cache[string, []byte]

	mu          sync.RWMutex
	startedAt   time.Time
	hasSummary  bool
	summary     Summary
	lastState   poller.State
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service. history and adv may be nil.
func New(cfg Config, p *poller.Poller, history *store.History, adv advisor.Advisor) (*Service, error) {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if adv == nil {
		adv = advisor.CannedAdvisor{Delay: advisor.DefaultCannedDelay}
	}

	assets, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e4,
		MaxCost:     32 << 20, // 32 MB of rendered charts/PDFs
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("daemon: creating asset cache: %w", err)
	}

	return &Service{
		cfg:       cfg,
		poller:    p,
		history:   history,
		advisor:   adv,
		assets:    assets,
		startedAt: time.Now(),
		lastState: poller.Loading,
		subs:      make(map[int]chan Event),
	}, nil
}

// Handler returns the HTTP API routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/expenses.png", s.handleExpensesPNG)
		r.Get("/dashboard/report.pdf", s.handleReportPDF)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
		r.Get("/history", s.handleHistory)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/chat", s.handleChat)
		r.Get("/chat/suggestions", s.handleSuggestions)
	})
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	updates, unsubscribe := s.poller.Subscribe(16)
	defer unsubscribe()
	s.poller.Start()
	defer s.poller.Stop()
	defer s.assets.Close()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			s.applyUpdate(u)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// applyUpdate turns a poller update into events and history rows.
func (s *Service) applyUpdate(u poller.Update) {
	if u.State == poller.Error {
		s.mu.Lock()
		changed := s.lastState != poller.Error
		s.lastState = poller.Error
		s.mu.Unlock()

		// One event per transition into error, not one per failing tick.
		if changed {
			s.publishEvent(Event{
				Type:      "error",
				Timestamp: u.At,
				State:     u.State.String(),
				Summary:   s.currentSummary(),
				Error:     u.Result.Message(),
			})
		}
		return
	}

	view := u.Result.View
	sum := summaryFromView(view, u.Seq, u.At)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.summary
	prevExists := s.hasSummary
	recovered := s.lastState == poller.Error

	s.hasSummary = true
	s.summary = sum
	s.lastState = poller.Ready

	switch {
	case !prevExists || recovered:
		ev = Event{Type: "snapshot", Timestamp: u.At, State: u.State.String(), Summary: sum}
		publish = true
	default:
		delta := diffSummaries(prev, sum)
		if !delta.isZero() || prev.Hash != sum.Hash {
			ev = Event{Type: "dashboard_delta", Timestamp: u.At, State: u.State.String(), Summary: sum, Delta: delta}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
	s.recordHistory(view, u.At)
}

func (s *Service) recordHistory(view *model.ViewModel, at time.Time) {
	if s.history == nil || !s.cfg.RecordHistory {
		return
	}
	added, err := s.history.Record(model.SnapshotOf(view, view.Hash, at), view.PredictionID)
	if err != nil {
		log.Printf("fincast daemon: %v", err)
		return
	}
	if added && s.cfg.HistoryKeep > 0 {
		if _, err := s.history.Prune(s.cfg.HistoryKeep); err != nil {
			log.Printf("fincast daemon: %v", err)
		}
	}
}

func summaryFromView(v *model.ViewModel, seq uint64, at time.Time) Summary {
	return Summary{
		At:                 at,
		Seq:                seq,
		Hash:               v.Hash,
		Income:             v.Profile.Income,
		TotalExpenses:      v.Metrics.TotalExpenses,
		SavingsPotential:   v.Metrics.SavingsPotential,
		RecommendedSavings: v.Output.AmountModel.RecommendedSavings,
		GoalProgressPct:    v.Metrics.SavingsGoalProgress,
		RiskScore:          v.Output.MultiTaskModel.RiskScore,
		RiskLevel:          v.Metrics.RiskLevel,
	}
}

func diffSummaries(prev, curr Summary) Delta {
	return Delta{
		Income:             curr.Income - prev.Income,
		TotalExpenses:      curr.TotalExpenses - prev.TotalExpenses,
		SavingsPotential:   curr.SavingsPotential - prev.SavingsPotential,
		RecommendedSavings: curr.RecommendedSavings - prev.RecommendedSavings,
		RiskScore:          curr.RiskScore - prev.RiskScore,
	}
}

func (s *Service) currentSummary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
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
	cur := s.poller.Current()
	st := s.poller.Stats()

	s.mu.RLock()
	status := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      st.LastPoll,
		PollIntervalSec: int(s.poller.Interval().Seconds()),
		PollCount:       st.Polls,
		StaleCount:      st.Stale,
		Seq:             cur.Seq,
		State:           cur.State.String(),
		Source:          s.cfg.SourceDesc,
		Summary:         s.summary,
		LastError:       st.LastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	s.mu.RUnlock()

	if s.history != nil {
		status.HistoryCount, _ = s.history.Count()
	}
	return status
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
