// Package session defines the research session domain entity.
package session

import (
	"errors"
	"time"
)

// Status represents the current state of a research session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Session represents one research run whose pipeline events are being
// collected. The event buffer itself lives with the service that owns the
// session; the entity only carries identity and coarse status.
type Session struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a new session.
type CreateRequest struct {
	Query string `json:"query"`
}

// Validate checks entity invariants.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	switch s.Status {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return nil
	default:
		return errors.New("invalid session status: " + string(s.Status))
	}
}

// Terminal reports whether the session reached a final state.
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed || s.Status == StatusCancelled
}
