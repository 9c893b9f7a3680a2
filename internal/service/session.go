// Package service contains the application services that glue transport,
// persistence, and the derivation core together.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voriol/trailview/internal/adapter/otel"
	"github.com/voriol/trailview/internal/adapter/ws"
	"github.com/voriol/trailview/internal/domain"
	"github.com/voriol/trailview/internal/domain/progress"
	"github.com/voriol/trailview/internal/domain/session"
	"github.com/voriol/trailview/internal/domain/stream"
	"github.com/voriol/trailview/internal/domain/timeline"
	"github.com/voriol/trailview/internal/port/broadcast"
	"github.com/voriol/trailview/internal/port/cache"
	"github.com/voriol/trailview/internal/port/eventstore"
	"github.com/voriol/trailview/internal/resilience"
)

// sessionState owns the append-only event buffers for one session. The
// derivation core is handed the full buffer on every call and keeps no
// state of its own.
type sessionState struct {
	session   session.Session
	events    []stream.Event
	lifecycle []progress.LifecycleEvent

	// appended counts every stream event ever accepted, including ones the
	// bounded buffer has since dropped. It keys the snapshot cache: the
	// buffer length stops changing once the buffer saturates, this never
	// does.
	appended uint64
}

// SessionService manages research sessions and their event buffers.
type SessionService struct {
	store     eventstore.Store
	cache     cache.Cache
	hub       broadcast.Broadcaster
	breaker   *resilience.Breaker
	maxEvents int
	ttl       time.Duration

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// NewSessionService creates a SessionService. store, cache, and hub may be
// nil; the service then runs memory-only without caching or fan-out.
func NewSessionService(store eventstore.Store, c cache.Cache, hub broadcast.Broadcaster, breaker *resilience.Breaker, maxEvents int, snapshotTTL time.Duration) *SessionService {
	if maxEvents < 1 {
		maxEvents = 10000
	}
	return &SessionService{
		store:     store,
		cache:     c,
		hub:       hub,
		breaker:   breaker,
		maxEvents: maxEvents,
		ttl:       snapshotTTL,
		sessions:  make(map[string]*sessionState),
	}
}

// Create registers a new session for the given research query.
func (s *SessionService) Create(_ context.Context, query string) (session.Session, error) {
	now := time.Now().UTC()
	sess := session.Session{
		ID:        uuid.NewString(),
		Query:     query,
		Status:    session.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := sess.Validate(); err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = &sessionState{session: sess}
	s.mu.Unlock()

	slog.Info("session created", "session_id", sess.ID)
	return sess, nil
}

// Get returns the session entity.
func (s *SessionService) Get(ctx context.Context, id string) (session.Session, error) {
	st, err := s.lookup(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return st.session, nil
}

// List returns all known sessions, newest first.
func (s *SessionService) List(_ context.Context) []session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]session.Session, 0, len(s.sessions))
	for _, st := range s.sessions {
		out = append(out, st.session)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// AppendEvent appends one raw pipeline event to the session buffer and
// returns the freshly derived snapshot. Only non-object payloads are
// rejected; malformed payload contents degrade to defaults inside the
// derivation core.
func (s *SessionService) AppendEvent(ctx context.Context, id string, payload json.RawMessage) (timeline.Snapshot, error) {
	ctx, span := otel.StartIngestSpan(ctx, id, "stream")
	defer span.End()

	ev, err := stream.DecodeJSON(payload)
	if err != nil {
		return timeline.Snapshot{}, err
	}

	st, err := s.lookup(ctx, id)
	if err != nil {
		return timeline.Snapshot{}, err
	}

	s.persist(ctx, id, payload, false)

	s.mu.Lock()
	st.events = appendBounded(st.events, ev, s.maxEvents)
	st.appended++
	touchSession(&st.session, ev)
	events := make([]stream.Event, len(st.events))
	copy(events, st.events)
	seq := st.appended
	sess := st.session
	s.mu.Unlock()

	snap := s.buildSnapshot(ctx, id, seq, events)

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventTimelineSnapshot, ws.TimelineSnapshotEvent{
			SessionID: id,
			Snapshot:  snap,
		})
		if sess.Terminal() {
			s.hub.BroadcastEvent(ctx, ws.EventSessionStatus, ws.SessionStatusEvent{
				SessionID: id,
				Status:    string(sess.Status),
			})
		}
	}

	return snap, nil
}

// AppendLifecycle appends one lifecycle event and returns the re-aggregated
// progress units.
func (s *SessionService) AppendLifecycle(ctx context.Context, id string, payload json.RawMessage) ([]progress.Unit, error) {
	ctx, span := otel.StartIngestSpan(ctx, id, "lifecycle")
	defer span.End()

	ev, err := progress.DecodeJSON(payload)
	if err != nil {
		return nil, err
	}

	st, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	s.persist(ctx, id, payload, true)

	s.mu.Lock()
	st.lifecycle = append(st.lifecycle, ev)
	if st.session.Status == session.StatusPending {
		st.session.Status = session.StatusRunning
	}
	st.session.UpdatedAt = time.Now().UTC()
	lifecycle := make([]progress.LifecycleEvent, len(st.lifecycle))
	copy(lifecycle, st.lifecycle)
	s.mu.Unlock()

	units := progress.Aggregate(lifecycle)

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, ws.EventProgressUpdate, ws.ProgressUpdateEvent{
			SessionID: id,
			Units:     units,
		})
	}

	return units, nil
}

// Timeline derives the current snapshot from the full session buffer.
func (s *SessionService) Timeline(ctx context.Context, id string) (timeline.Snapshot, error) {
	st, err := s.lookup(ctx, id)
	if err != nil {
		return timeline.Snapshot{}, err
	}

	s.mu.RLock()
	events := make([]stream.Event, len(st.events))
	copy(events, st.events)
	seq := st.appended
	s.mu.RUnlock()

	return s.buildSnapshot(ctx, id, seq, events), nil
}

// Progress aggregates the current progress view from the lifecycle buffer.
func (s *SessionService) Progress(ctx context.Context, id string) ([]progress.Unit, error) {
	st, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	lifecycle := make([]progress.LifecycleEvent, len(st.lifecycle))
	copy(lifecycle, st.lifecycle)
	s.mu.RUnlock()

	return progress.Aggregate(lifecycle), nil
}

// Ensure registers a session with the given id if it is not yet known.
// Used by the queue ingest path, where the pipeline chooses session ids.
func (s *SessionService) Ensure(ctx context.Context, id string) {
	if _, err := s.lookup(ctx, id); err == nil {
		return
	}

	now := time.Now().UTC()
	st := &sessionState{
		session: session.Session{
			ID:        id,
			Status:    session.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = st
		slog.Info("session registered from ingest", "session_id", id)
	}
	s.mu.Unlock()
}

// lookup finds the session in memory, falling back to rehydrating its
// buffers from the event store.
func (s *SessionService) lookup(ctx context.Context, id string) (*sessionState, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return st, nil
	}

	if s.store == nil {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return s.rehydrate(ctx, id)
}

// rehydrate rebuilds the in-memory buffers from the persisted event log.
func (s *SessionService) rehydrate(ctx context.Context, id string) (*sessionState, error) {
	stored, err := s.store.LoadStream(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rehydrate session %s: %w", id, err)
	}
	lifecycleStored, err := s.store.LoadLifecycle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rehydrate session %s: %w", id, err)
	}
	if len(stored) == 0 && len(lifecycleStored) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	st := &sessionState{
		session: session.Session{
			ID:        id,
			Status:    session.StatusRunning,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		},
	}
	if len(stored) > 0 {
		st.session.CreatedAt = stored[0].CreatedAt
	}

	for _, rec := range stored {
		ev, err := stream.DecodeJSON(rec.Payload)
		if err != nil {
			slog.Warn("skipping malformed stored event", "session_id", id, "seq", rec.Seq)
			continue
		}
		st.events = appendBounded(st.events, ev, s.maxEvents)
		st.appended++
		touchSession(&st.session, ev)
	}
	for _, rec := range lifecycleStored {
		ev, err := progress.DecodeJSON(rec.Payload)
		if err != nil {
			slog.Warn("skipping malformed stored lifecycle event", "session_id", id, "seq", rec.Seq)
			continue
		}
		st.lifecycle = append(st.lifecycle, ev)
	}

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		// Another caller rehydrated concurrently; keep theirs.
		s.mu.Unlock()
		return existing, nil
	}
	s.sessions[id] = st
	s.mu.Unlock()

	slog.Info("session rehydrated", "session_id", id, "events", len(st.events), "lifecycle_events", len(st.lifecycle))
	return st, nil
}

// persist appends the raw payload to the event store behind the circuit
// breaker. Persistence failures degrade the session to memory-only; the
// ingest path never fails on them.
func (s *SessionService) persist(ctx context.Context, id string, payload json.RawMessage, lifecycle bool) {
	if s.store == nil {
		return
	}

	fn := func() error { return s.store.AppendStream(ctx, id, payload) }
	if lifecycle {
		fn = func() error { return s.store.AppendLifecycle(ctx, id, payload) }
	}
	if s.breaker != nil {
		err := s.breaker.Execute(fn)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			slog.Debug("event persistence circuit open", "session_id", id)
			return
		}
		if err != nil {
			slog.Error("event persistence failed", "session_id", id, "error", err)
		}
		return
	}
	if err := fn(); err != nil {
		slog.Error("event persistence failed", "session_id", id, "error", err)
	}
}

// buildSnapshot derives the snapshot, consulting the cache first. The cache
// key includes the session's monotone append counter: the derivation is a
// pure function of the sequence, and the counter changes on every accepted
// event even after the bounded buffer starts dropping its oldest entries.
func (s *SessionService) buildSnapshot(ctx context.Context, id string, seq uint64, events []stream.Event) timeline.Snapshot {
	key := fmt.Sprintf("timeline:%s:%d", id, seq)

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var snap timeline.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return snap
			}
		}
	}

	ctx, span := otel.StartBuildSpan(ctx, id, len(events))
	snap := timeline.Build(events, stream.PlanState{})
	span.End()

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			_ = s.cache.Set(ctx, key, data, s.ttl)
		}
	}

	return snap
}

// appendBounded appends keeping at most limit events, dropping the oldest.
func appendBounded(events []stream.Event, ev stream.Event, limit int) []stream.Event {
	events = append(events, ev)
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events
}

// touchSession advances the session status from observed events: any event
// marks it running, a finalization event completes it.
func touchSession(sess *session.Session, ev stream.Event) {
	if sess.Status == session.StatusPending {
		sess.Status = session.StatusRunning
	}
	if ev.Finalized != nil {
		sess.Status = session.StatusCompleted
	}
	sess.UpdatedAt = time.Now().UTC()
}
