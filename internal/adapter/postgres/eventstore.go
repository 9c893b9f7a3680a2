package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voriol/trailview/internal/port/eventstore"
)

// EventStore implements eventstore.Store using PostgreSQL (append-only).
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// AppendStream inserts one raw pipeline event into stream_events.
func (s *EventStore) AppendStream(ctx context.Context, sessionID string, payload json.RawMessage) error {
	return s.append(ctx, "stream_events", sessionID, payload)
}

// LoadStream returns all pipeline events for the session in append order.
func (s *EventStore) LoadStream(ctx context.Context, sessionID string) ([]eventstore.StoredEvent, error) {
	return s.load(ctx, "stream_events", sessionID)
}

// AppendLifecycle inserts one lifecycle event into lifecycle_events.
func (s *EventStore) AppendLifecycle(ctx context.Context, sessionID string, payload json.RawMessage) error {
	return s.append(ctx, "lifecycle_events", sessionID, payload)
}

// LoadLifecycle returns all lifecycle events for the session in append order.
func (s *EventStore) LoadLifecycle(ctx context.Context, sessionID string) ([]eventstore.StoredEvent, error) {
	return s.load(ctx, "lifecycle_events", sessionID)
}

func (s *EventStore) append(ctx context.Context, table, sessionID string, payload json.RawMessage) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (session_id, payload) VALUES ($1, $2)`, table),
		sessionID, payload)
	if err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	return nil
}

func (s *EventStore) load(ctx context.Context, table, sessionID string) ([]eventstore.StoredEvent, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, session_id, seq, payload, created_at FROM %s WHERE session_id = $1 ORDER BY seq ASC`, table),
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("load from %s: %w", table, err)
	}
	defer rows.Close()

	var events []eventstore.StoredEvent
	for rows.Next() {
		var ev eventstore.StoredEvent
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Seq, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
