// Package eventstore defines the port interface for the append-only event log.
package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

// StoredEvent is one persisted raw event. Payload stays opaque; the
// derivation core decodes it on read.
type StoredEvent struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Seq       int64           `json:"seq"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store is the port interface for appending and loading session events.
// Both logs are append-only; Load returns events in append order, which is
// the authoritative ordering signal for the derivation core.
type Store interface {
	// AppendStream persists one raw pipeline event for the session.
	AppendStream(ctx context.Context, sessionID string, payload json.RawMessage) error

	// LoadStream returns all pipeline events for the session in append order.
	LoadStream(ctx context.Context, sessionID string) ([]StoredEvent, error)

	// AppendLifecycle persists one lifecycle event for the session.
	AppendLifecycle(ctx context.Context, sessionID string, payload json.RawMessage) error

	// LoadLifecycle returns all lifecycle events for the session in append order.
	LoadLifecycle(ctx context.Context, sessionID string) ([]StoredEvent, error)
}
