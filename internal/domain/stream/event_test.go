package stream_test

import (
	"testing"

	"github.com/voriol/trailview/internal/domain/stream"
)

func TestDecodePlanProduced(t *testing.T) {
	ev := stream.Decode(map[string]any{
		"plan-produced": map[string]any{
			"plan": []any{
				map[string]any{"id": "t1", "description": "Read papers"},
				map[string]any{"id": "t2", "description": "Summarize", "status": "pending"},
			},
			"cursor": float64(1),
		},
	})

	if ev.Plan == nil {
		t.Fatal("expected Plan payload")
	}
	if len(ev.Plan.Plan) != 2 {
		t.Fatalf("len(plan) = %d, want 2", len(ev.Plan.Plan))
	}
	if ev.Plan.Plan[0].ID != "t1" || ev.Plan.Plan[1].Status != "pending" {
		t.Fatalf("unexpected tasks: %+v", ev.Plan.Plan)
	}
	if ev.Plan.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", ev.Plan.Cursor)
	}
}

func TestDecodeWebResearch(t *testing.T) {
	ev := stream.Decode(map[string]any{
		"web-research-completed": map[string]any{
			"search_query":            "quantum dots",
			"executed_search_queries": []any{"quantum dots", "qdots synthesis"},
			"sources_gathered": []any{
				map[string]any{"label": "A", "value": "http://a", "short_url": "http://s/a"},
			},
		},
	})

	if ev.WebResearch == nil {
		t.Fatal("expected WebResearch payload")
	}
	if ev.WebResearch.SearchQuery != "quantum dots" {
		t.Fatalf("search_query = %q", ev.WebResearch.SearchQuery)
	}
	if len(ev.WebResearch.ExecutedSearchQueries) != 2 {
		t.Fatalf("executed queries = %v", ev.WebResearch.ExecutedSearchQueries)
	}
	src := ev.WebResearch.SourcesGathered[0]
	if src.Label != "A" || src.Value != "http://a" || src.ShortURL != "http://s/a" {
		t.Fatalf("unexpected source: %+v", src)
	}
}

func TestDecodeMultiplePayloadsOnOneRecord(t *testing.T) {
	ev := stream.Decode(map[string]any{
		"reflection-completed": map[string]any{"is_sufficient": true, "knowledge_gap": "none"},
		"research-evaluated":   map[string]any{"is_sufficient": false, "reasoning": "thin"},
	})

	if ev.Reflection == nil || ev.Evaluation == nil {
		t.Fatal("expected both payloads to be set")
	}
	if !ev.Reflection.IsSufficient || ev.Evaluation.IsSufficient {
		t.Fatal("payload fields crossed over")
	}
}

func TestDecodeUnknownDiscriminator(t *testing.T) {
	ev := stream.Decode(map[string]any{
		"totally-new-stage": map[string]any{"x": 1},
	})

	if ev.Plan != nil || ev.Query != nil || ev.WebResearch != nil {
		t.Fatal("no typed payload should be set")
	}
	if _, ok := ev.Unknown["totally-new-stage"]; !ok {
		t.Fatal("expected unknown discriminator to be preserved")
	}
}

func TestDecodeMistypedFieldsDegrade(t *testing.T) {
	ev := stream.Decode(map[string]any{
		"query-generated": map[string]any{
			"queries":   "not a list",
			"rationale": float64(7),
		},
		"plan-produced": "not an object",
	})

	if ev.Query == nil {
		t.Fatal("expected Query payload despite mistyped fields")
	}
	if ev.Query.Queries != nil || ev.Query.Rationale != "" {
		t.Fatalf("expected zero values, got %+v", ev.Query)
	}
	if ev.Plan == nil {
		t.Fatal("expected Plan payload for present discriminator")
	}
	if len(ev.Plan.Plan) != 0 || ev.Plan.Cursor != 0 {
		t.Fatalf("expected empty plan state, got %+v", ev.Plan)
	}
}

func TestDecodeStringsSkipNonStrings(t *testing.T) {
	ev := stream.Decode(map[string]any{
		"query-generated": map[string]any{
			"queries": []any{"a", float64(2), "b", nil},
		},
	})

	got := ev.Query.Queries
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("queries = %v, want [a b]", got)
	}
}

func TestDecodeJSONNonObject(t *testing.T) {
	if _, err := stream.DecodeJSON([]byte(`[1,2,3]`)); err == nil {
		t.Fatal("expected error for non-object JSON")
	}
	if _, err := stream.DecodeJSON([]byte(`"text"`)); err == nil {
		t.Fatal("expected error for scalar JSON")
	}
	if _, err := stream.DecodeJSON([]byte(`{}`)); err != nil {
		t.Fatalf("empty object must decode, got %v", err)
	}
}

func TestDecodeAllPreservesOrder(t *testing.T) {
	events := stream.DecodeAll([]map[string]any{
		{"query-generated": map[string]any{"queries": []any{"first"}}},
		{"query-generated": map[string]any{"queries": []any{"second"}}},
	})

	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Query.Queries[0] != "first" || events[1].Query.Queries[0] != "second" {
		t.Fatal("order not preserved")
	}
}
