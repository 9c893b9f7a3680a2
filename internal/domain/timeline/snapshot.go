// Package timeline derives a hierarchical progress view from a raw pipeline
// event sequence: a plan summary, per-task statuses, and typed steps with
// structured detail payloads. The derivation is a pure function of its
// inputs; the same event sequence always yields the same snapshot.
package timeline

// OverallStatus is the top-level state of a research session.
type OverallStatus string

const (
	StatusPlanning    OverallStatus = "planning"
	StatusResearching OverallStatus = "researching"
	StatusCompleted   OverallStatus = "completed"
)

// TaskStatus is the execution state of one plan task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// StepType identifies the pipeline stage a step was synthesized from.
type StepType string

const (
	StepPlanning           StepType = "planning"
	StepQueryGeneration    StepType = "query_generation"
	StepWebResearch        StepType = "web_research"
	StepReflection         StepType = "reflection"
	StepContentEnhancement StepType = "content_enhancement"
	StepEvaluation         StepType = "evaluation"
	StepCompletion         StepType = "completion"
)

// StepStatus is the display state of a synthesized step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusSkipped    StepStatus = "skipped"
)

// DetailType classifies a structured detail payload.
type DetailType string

const (
	DetailSearchQueries DetailType = "search_queries"
	DetailSources       DetailType = "sources"
	DetailAnalysis      DetailType = "analysis"
	DetailDecision      DetailType = "decision"
)

// Source is a gathered web source normalized for display.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Label   string `json:"label"`
	Snippet string `json:"snippet"`
}

// Detail is a free-form structured payload attached to a step.
type Detail struct {
	Type     DetailType     `json:"type"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Step is one synthesized pipeline step shown under a task.
type Step struct {
	Type    StepType   `json:"type"`
	Title   string     `json:"title"`
	Status  StepStatus `json:"status"`
	Details []Detail   `json:"details,omitempty"`
}

// TaskDetail is the derived view of one plan task.
type TaskDetail struct {
	TaskID      string     `json:"task_id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Steps       []Step     `json:"steps"`
}

// PlanningTask is one task row of the planning summary.
type PlanningTask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// PlanningSummary summarizes the current plan.
type PlanningSummary struct {
	TotalTasks       int            `json:"total_tasks"`
	CurrentTaskIndex int            `json:"current_task_index"`
	Tasks            []PlanningTask `json:"tasks"`
}

// Snapshot is the full derived view handed to a renderer. Planning is nil
// when no plan exists yet; CurrentTaskID is nil when the cursor points past
// the plan.
type Snapshot struct {
	Planning      *PlanningSummary `json:"planning"`
	Tasks         []TaskDetail     `json:"tasks"`
	CurrentTaskID *string          `json:"current_task_id"`
	OverallStatus OverallStatus    `json:"overall_status"`
}
