package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voriol/trailview/internal/port/messagequeue"
)

// StartStreamSubscriber subscribes to pipeline events published per session
// on research.events.{session_id} and appends them to the session buffer.
// The returned function cancels the subscription.
func (s *SessionService) StartStreamSubscriber(ctx context.Context, queue messagequeue.Queue) (func(), error) {
	cancel, err := queue.Subscribe(ctx, messagequeue.SubjectStreamEvents+".>", func(ctx context.Context, subject string, data []byte) error {
		id := sessionFromSubject(subject)
		if id == "" {
			slog.Warn("stream event without session id", "subject", subject)
			return nil
		}
		s.Ensure(ctx, id)
		if _, err := s.AppendEvent(ctx, id, data); err != nil {
			return fmt.Errorf("append stream event for %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe stream events: %w", err)
	}
	return cancel, nil
}

// StartLifecycleSubscriber subscribes to lifecycle events published per
// session on research.progress.{session_id}.
func (s *SessionService) StartLifecycleSubscriber(ctx context.Context, queue messagequeue.Queue) (func(), error) {
	cancel, err := queue.Subscribe(ctx, messagequeue.SubjectLifecycleEvents+".>", func(ctx context.Context, subject string, data []byte) error {
		id := sessionFromSubject(subject)
		if id == "" {
			slog.Warn("lifecycle event without session id", "subject", subject)
			return nil
		}
		s.Ensure(ctx, id)
		if _, err := s.AppendLifecycle(ctx, id, data); err != nil {
			return fmt.Errorf("append lifecycle event for %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe lifecycle events: %w", err)
	}
	return cancel, nil
}

// sessionFromSubject extracts the session id from the last subject token.
func sessionFromSubject(subject string) string {
	idx := strings.LastIndex(subject, ".")
	if idx < 0 || idx == len(subject)-1 {
		return ""
	}
	return subject[idx+1:]
}
