package stream

import (
	"maps"
	"slices"
)

// MergeState folds every object-valued field across the event sequence into
// one running state mapping (later events overwrite earlier ones key by key,
// not record by record) and recovers the current plan and cursor from it.
// Planning state may arrive embedded piecemeal across multiple events; this
// merge reconstructs the latest view.
//
// The seed state is the caller-supplied auxiliary state; event-derived values
// overwrite it.
func MergeState(events []Event, seed PlanState) PlanState {
	latest := make(map[string]any)
	if len(seed.Plan) > 0 {
		latest["plan"] = seed.Plan
	}
	latest["cursor"] = seed.Cursor

	for _, ev := range events {
		// Sorted field order keeps the merge deterministic when one record
		// carries several object-valued fields that set the same key.
		for _, field := range slices.Sorted(maps.Keys(ev.fields)) {
			obj, ok := ev.fields[field].(map[string]any)
			if !ok {
				continue
			}
			for k, v := range obj {
				latest[k] = v
			}
		}
	}

	state := PlanState{Cursor: asInt(latest["cursor"])}

	switch plan := latest["plan"].(type) {
	case []Task:
		state.Plan = plan
	default:
		state.Plan = asTasks(latest["plan"])
	}
	if len(state.Plan) == 0 {
		state.Plan = seed.Plan
	}

	return state
}

// HasPlanning reports whether any event in the sequence carries a planning
// discriminator.
func HasPlanning(events []Event) bool {
	for _, ev := range events {
		if ev.Plan != nil {
			return true
		}
	}
	return false
}

// HasFinalization reports whether any event in the sequence carries a
// finalization discriminator.
func HasFinalization(events []Event) bool {
	for _, ev := range events {
		if ev.Finalized != nil {
			return true
		}
	}
	return false
}
