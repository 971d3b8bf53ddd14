// Package daemon provides the long-running event ingest service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/theirongolddev/flightrec/internal/config"
	"github.com/theirongolddev/flightrec/internal/hook"
	"github.com/theirongolddev/flightrec/internal/pipeline"
)

const maxEventBody = 1 << 20 // 1 MB

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
	RecordDir    string // when set, ingested events are appended as session logs
	App          config.Config
}

// Snapshot is a compact per-session telemetry state for status/event payloads.
type Snapshot struct {
	At               time.Time `json:"at"`
	SessionID        string    `json:"session_id"`
	Turns            int       `json:"turns"`
	InputTokens      int64     `json:"input_tokens"`
	OutputTokens     int64     `json:"output_tokens"`
	EstimatedCostUSD float64   `json:"estimated_cost_usd"`
	SlowToolWarnings int       `json:"slow_tool_warnings"`
	CostWarnings     int       `json:"cost_warnings"`
	Injections       int       `json:"injections"`
	Phase            string    `json:"phase"`
	PhaseConfidence  float64   `json:"phase_confidence"`
	PredictedPath    []string  `json:"predicted_path,omitempty"`
}

// Event is emitted whenever a dispatched lifecycle event produces a decision
// worth surfacing, and once per session when it first appears.
type Event struct {
	ID        int64       `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	SessionID string      `json:"session_id"`
	Decision  hook.Result `json:"decision,omitzero"`
	Snapshot  Snapshot    `json:"snapshot"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Addr            string    `json:"addr"`
	IngestCount     int64     `json:"ingest_count"`
	LastIngestAt    time.Time `json:"last_ingest_at,omitzero"`
	SessionCount    int       `json:"session_count"`
	Active          Snapshot  `json:"active,omitzero"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

type liveSession struct {
	dispatcher *pipeline.Dispatcher
	lastSeen   time.Time
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config

	mu           sync.RWMutex
	startedAt    time.Time
	ingestCount  int64
	lastIngestAt time.Time
	lastError    string
	sessions     map[string]*liveSession
	activeID     string
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8790"
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
		sessions:  make(map[string]*liveSession),
		subs:      make(map[int]chan Event),
	}
}

// Run starts the HTTP endpoints until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Printf("flightrec daemon listening on %s", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// Ingest dispatches one lifecycle event through the session's live handlers
// and returns the resulting decisions.
func (s *Service) Ingest(ev hook.Event) []hook.Result {
	if ev.SessionID == "" {
		ev.SessionID = "live"
	}
	now := time.Now()

	s.mu.Lock()
	sess, ok := s.sessions[ev.SessionID]
	if !ok {
		sess = &liveSession{
			dispatcher: pipeline.NewDispatcher(s.cfg.App, s.cfg.App.BuildPricingTable(), nil),
		}
		s.sessions[ev.SessionID] = sess
	}
	sess.lastSeen = now
	s.activeID = ev.SessionID
	s.ingestCount++
	s.lastIngestAt = now
	s.mu.Unlock()

	decisions := sess.dispatcher.Dispatch(ev)

	if s.cfg.RecordDir != "" {
		if err := s.recordEvent(ev); err != nil {
			s.mu.Lock()
			s.lastError = err.Error()
			s.mu.Unlock()
			log.Printf("flightrec daemon record error: %v", err)
		}
	}

	snap := s.snapshotSession(ev.SessionID, sess, now)
	for _, d := range decisions {
		s.publishEvent(Event{
			Type:      "decision",
			Timestamp: now,
			SessionID: ev.SessionID,
			Decision:  d,
			Snapshot:  snap,
		})
	}
	if ev.Type == hook.SessionEnd {
		s.publishEvent(Event{
			Type:      "session_end",
			Timestamp: now,
			SessionID: ev.SessionID,
			Snapshot:  snap,
		})
	}

	return decisions
}

// recordEvent appends the raw event to the session's JSONL log so that a later
// replay reproduces the live numbers.
func (s *Service) recordEvent(ev hook.Event) error {
	dir := filepath.Join(s.cfg.RecordDir, "sessions")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating record dir: %w", err)
	}

	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	path := filepath.Join(dir, ev.SessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening session log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing session log: %w", err)
	}
	return nil
}

func (s *Service) snapshotSession(sessionID string, sess *liveSession, at time.Time) Snapshot {
	report := sess.dispatcher.Snapshot()
	traj := sess.dispatcher.Trajectory()
	return Snapshot{
		At:               at,
		SessionID:        sessionID,
		Turns:            report.Turns,
		InputTokens:      report.InputTokens,
		OutputTokens:     report.OutputTokens,
		EstimatedCostUSD: report.EstimatedCost,
		SlowToolWarnings: report.SlowToolWarnings,
		CostWarnings:     report.CostWarnings,
		Injections:       report.Injections,
		Phase:            traj.CurrentPhase,
		PhaseConfidence:  traj.Confidence,
		PredictedPath:    traj.Predicted,
	}
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
	s.mu.RLock()
	activeID := s.activeID
	sess := s.sessions[activeID]
	status := Status{
		StartedAt:       s.startedAt,
		Addr:            s.cfg.Addr,
		IngestCount:     s.ingestCount,
		LastIngestAt:    s.lastIngestAt,
		SessionCount:    len(s.sessions),
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
	s.mu.RUnlock()

	if sess != nil {
		status.Active = s.snapshotSession(activeID, sess, time.Now())
	}
	return status
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

// handleEvents ingests one lifecycle event on POST and serves the ring
// buffer backlog on GET.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var ev hook.Event
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
		if err := dec.Decode(&ev); err != nil {
			http.Error(w, "bad event payload", http.StatusBadRequest)
			return
		}

		decisions := s.Ingest(ev)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(decisions)

	case http.MethodGet:
		s.mu.RLock()
		events := make([]Event, len(s.events))
		copy(events, s.events)
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
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

	// Send current state immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Active,
	}
	writeSSE(w, current)
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
