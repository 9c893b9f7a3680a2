// Package progress aggregates start/end/error lifecycle events emitted per
// named unit of pipeline work into a per-unit display state with duration
// and ordering. Like the timeline builder it is a pure reducer: every call
// re-derives the full view from the full event sequence.
package progress

import (
	"sort"
	"strings"
	"time"
)

// Kind identifies a lifecycle transition. Graph-level kinds are aliases for
// the node-level ones, applied to the root unit of the run.
type Kind string

const (
	KindGraphStart Kind = "graph_start"
	KindNodeStart  Kind = "node_start"
	KindNodeEnd    Kind = "node_end"
	KindNodeError  Kind = "node_error"
	KindGraphEnd   Kind = "graph_end"
)

// LifecycleEvent is one lifecycle record for a named unit of work.
type LifecycleEvent struct {
	Kind       Kind           `json:"kind"`
	Unit       string         `json:"unit"`
	Timestamp  time.Time      `json:"timestamp,omitzero"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// State is the derived display state of a unit.
type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
)

// Unit is the aggregated view of one named unit of work.
type Unit struct {
	Name         string `json:"unit_name"`
	DisplayLabel string `json:"display_label"`
	State        State  `json:"state"`
	DurationMS   int64  `json:"duration_ms,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// unitAccum holds at most one reference per lifecycle flag while folding.
type unitAccum struct {
	started *LifecycleEvent
	ended   *LifecycleEvent
	errored *LifecycleEvent

	firstSeen time.Time
	arrival   int
}

// Aggregate folds the event sequence into per-unit states. Flags are
// monotone: a later start overwrites the stored reference but a terminal
// unit never becomes active again. Units are ordered by first-observed
// timestamp; events without a timestamp sort as epoch zero, which is a
// documented weak ordering, so the arrival index breaks ties.
func Aggregate(events []LifecycleEvent) []Unit {
	accums := make(map[string]*unitAccum)
	var order []string

	for i := range events {
		ev := &events[i]
		acc, ok := accums[ev.Unit]
		if !ok {
			acc = &unitAccum{firstSeen: ev.Timestamp, arrival: len(order)}
			accums[ev.Unit] = acc
			order = append(order, ev.Unit)
		}

		switch ev.Kind {
		case KindNodeStart, KindGraphStart:
			acc.started = ev
		case KindNodeEnd, KindGraphEnd:
			acc.ended = ev
		case KindNodeError:
			acc.errored = ev
		}
	}

	units := make([]Unit, 0, len(order))
	for _, name := range order {
		units = append(units, deriveUnit(name, accums[name]))
	}

	sort.SliceStable(units, func(i, j int) bool {
		a, b := accums[units[i].Name], accums[units[j].Name]
		if !a.firstSeen.Equal(b.firstSeen) {
			return a.firstSeen.Before(b.firstSeen)
		}
		return a.arrival < b.arrival
	})

	return units
}

// deriveUnit maps flags to the display state with the fixed priority
// errored > completed > active > pending. Display fields stay last-write:
// an end event arriving after an error still supplies the duration even
// though the errored state sticks.
func deriveUnit(name string, acc *unitAccum) Unit {
	u := Unit{
		Name:         name,
		DisplayLabel: DisplayLabel(name),
		State:        StatePending,
	}

	switch {
	case acc.errored != nil:
		u.State = StateErrored
		u.DurationMS = acc.errored.DurationMS
		if acc.ended != nil {
			u.DurationMS = acc.ended.DurationMS
		}
		u.ErrorMessage = acc.errored.Error
	case acc.ended != nil:
		u.State = StateCompleted
		u.DurationMS = acc.ended.DurationMS
	case acc.started != nil:
		u.State = StateActive
	}

	return u
}

// DisplayLabel humanizes a unit name: separators become spaces and each word
// is capitalized, so "generate_query" renders as "Generate Query".
func DisplayLabel(name string) string {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}
