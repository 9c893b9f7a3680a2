package progress_test

import (
	"testing"
	"time"

	"github.com/voriol/trailview/internal/domain/progress"
)

func TestDecodeJSONFullRecord(t *testing.T) {
	data := []byte(`{
		"event_type": "node_end",
		"node_name": "web_research",
		"timestamp": "2026-08-25T10:00:00Z",
		"duration_ms": 1234,
		"metadata": {"attempt": 1}
	}`)

	ev, err := progress.DecodeJSON(data)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != progress.KindNodeEnd || ev.Unit != "web_research" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.DurationMS != 1234 {
		t.Fatalf("duration = %d, want 1234", ev.DurationMS)
	}
	want := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	if !ev.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", ev.Timestamp, want)
	}
	if ev.Metadata["attempt"] != float64(1) {
		t.Fatalf("metadata = %+v", ev.Metadata)
	}
}

func TestDecodeJSONErrorRecord(t *testing.T) {
	ev, err := progress.DecodeJSON([]byte(`{"event_type":"node_error","node_name":"reflection","error":"timeout"}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != progress.KindNodeError || ev.Error != "timeout" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestDecodeJSONLenient(t *testing.T) {
	// Mistyped fields degrade to zero values.
	ev, err := progress.DecodeJSON([]byte(`{
		"event_type": 42,
		"node_name": ["not","a","string"],
		"timestamp": "not-a-time",
		"duration_ms": "fast",
		"metadata": "loose"
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != "" || ev.Unit != "" {
		t.Fatalf("expected zero values, got %+v", ev)
	}
	if !ev.Timestamp.IsZero() || ev.DurationMS != 0 || ev.Metadata != nil {
		t.Fatalf("expected zero values, got %+v", ev)
	}
}

func TestDecodeJSONNonObject(t *testing.T) {
	if _, err := progress.DecodeJSON([]byte(`"node_start"`)); err == nil {
		t.Fatal("expected error for non-object JSON")
	}
}
