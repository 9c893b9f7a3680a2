package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventTimelineSnapshot = "timeline.snapshot"
	EventProgressUpdate   = "progress.update"
	EventSessionStatus    = "session.status"
)

// TimelineSnapshotEvent is broadcast after events are appended to a session.
// Snapshot carries the full derived timeline; clients replace, not merge.
type TimelineSnapshotEvent struct {
	SessionID string `json:"session_id"`
	Snapshot  any    `json:"snapshot"`
}

// ProgressUpdateEvent is broadcast after a lifecycle event is appended.
type ProgressUpdateEvent struct {
	SessionID string `json:"session_id"`
	Units     any    `json:"units"`
}

// SessionStatusEvent is broadcast when a session's status changes.
type SessionStatusEvent struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
