package timeline

import (
	"slices"

	"github.com/voriol/trailview/internal/domain/stream"
)

// Fallbacks for missing plan fields.
const (
	unknownTaskID          = "unknown"
	unknownTaskDescription = "Unknown task"
)

// Build folds the full event sequence plus the auxiliary plan state into a
// snapshot. It is pure and total: malformed input degrades to defaults,
// never to an error. Callers re-invoke it with the growing sequence whenever
// a fresh view is needed; no state is carried between calls.
func Build(events []stream.Event, aux stream.PlanState) Snapshot {
	state := stream.MergeState(events, aux)

	snap := Snapshot{
		Planning:      planningSummary(events, state),
		Tasks:         taskDetails(events, state),
		CurrentTaskID: currentTaskID(state),
		OverallStatus: overallStatus(events),
	}
	return snap
}

// planningSummary returns nil when no planning event was seen and no plan
// exists in state.
func planningSummary(events []stream.Event, state stream.PlanState) *PlanningSummary {
	if !stream.HasPlanning(events) && len(state.Plan) == 0 {
		return nil
	}

	tasks := make([]PlanningTask, 0, len(state.Plan))
	for i, t := range state.Plan {
		row := PlanningTask{
			ID:          t.ID,
			Description: t.Description,
			Status:      t.Status,
		}
		if row.ID == "" {
			row.ID = unknownTaskID
		}
		if row.Description == "" {
			row.Description = unknownTaskDescription
		}
		if row.Status == "" {
			row.Status = string(taskStatus(i, state.Cursor))
		}
		tasks = append(tasks, row)
	}

	return &PlanningSummary{
		TotalTasks:       len(state.Plan),
		CurrentTaskIndex: state.Cursor,
		Tasks:            tasks,
	}
}

// taskDetails derives one TaskDetail per plan task. Steps are synthesized
// once from the whole sequence and attached to every task at or before the
// cursor; the source events carry no finer per-task correlation.
func taskDetails(events []stream.Event, state stream.PlanState) []TaskDetail {
	details := make([]TaskDetail, 0, len(state.Plan))
	if len(state.Plan) == 0 {
		return details
	}

	steps := synthesizeSteps(events)

	for i, t := range state.Plan {
		d := TaskDetail{
			TaskID:      t.ID,
			Description: t.Description,
			Status:      taskStatus(i, state.Cursor),
			Steps:       []Step{},
		}
		if d.TaskID == "" {
			d.TaskID = unknownTaskID
		}
		if d.Description == "" {
			d.Description = unknownTaskDescription
		}
		if i <= state.Cursor {
			d.Steps = slices.Clone(steps)
		}
		details = append(details, d)
	}
	return details
}

// taskStatus partitions tasks by cursor position: before the cursor is
// completed, at the cursor is in progress, after it is pending.
func taskStatus(index, cursor int) TaskStatus {
	switch {
	case index < cursor:
		return TaskCompleted
	case index == cursor:
		return TaskInProgress
	default:
		return TaskPending
	}
}

func currentTaskID(state stream.PlanState) *string {
	if state.Cursor < 0 || state.Cursor >= len(state.Plan) {
		return nil
	}
	id := state.Plan[state.Cursor].ID
	if id == "" {
		id = unknownTaskID
	}
	return &id
}

// overallStatus reflects "planning has started", not "research is done": a
// planning event anywhere in the sequence yields researching even while
// steps are still outstanding. Downstream consumers depend on this labeling.
func overallStatus(events []stream.Event) OverallStatus {
	switch {
	case stream.HasFinalization(events):
		return StatusCompleted
	case stream.HasPlanning(events):
		return StatusResearching
	default:
		return StatusPlanning
	}
}
