package progress

import (
	"encoding/json"
	"fmt"
	"time"
)

// DecodeJSON decodes one lifecycle record leniently: only non-object JSON is
// an error, and mistyped fields degrade to zero values. Field names follow
// the tracker emitting them (event_type, node_name, timestamp, duration_ms,
// error, metadata).
func DecodeJSON(data []byte) (LifecycleEvent, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return LifecycleEvent{}, fmt.Errorf("decode lifecycle event: %w", err)
	}
	return Decode(raw), nil
}

// Decode maps one raw record onto a LifecycleEvent.
func Decode(raw map[string]any) LifecycleEvent {
	ev := LifecycleEvent{
		Kind: Kind(str(raw["event_type"])),
		Unit: str(raw["node_name"]),
	}

	if ts := str(raw["timestamp"]); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Timestamp = t
		}
	}
	switch d := raw["duration_ms"].(type) {
	case float64:
		ev.DurationMS = int64(d)
	case int64:
		ev.DurationMS = d
	}
	ev.Error = str(raw["error"])
	if m, ok := raw["metadata"].(map[string]any); ok {
		ev.Metadata = m
	}

	return ev
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
