// Package stream defines the raw pipeline event model for TrailView.
//
// Events arrive as loosely-typed JSON objects keyed by a fixed vocabulary of
// stage discriminators. Decoding maps each record onto a tagged union: one
// typed payload pointer per recognized stage, plus an Unknown bucket for
// forward compatibility. Decoding never fails on malformed payloads; missing
// or mistyped fields degrade to zero values.
package stream

import (
	"encoding/json"
	"fmt"
)

// Stage is a pipeline stage discriminator key.
type Stage string

const (
	StagePlanProduced    Stage = "plan-produced"
	StageQueryGenerated  Stage = "query-generated"
	StageWebResearch     Stage = "web-research-completed"
	StageReflection      Stage = "reflection-completed"
	StageContentEnhanced Stage = "content-enhanced"
	StageEvaluated       Stage = "research-evaluated"
	StageTaskCompleted   Stage = "task-completed"
	StageAnswerFinalized Stage = "answer-finalized"
)

// Task is one entry of a research plan as carried inside planning payloads.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// PlanState is the auxiliary plan/cursor state recovered from the stream.
type PlanState struct {
	Plan   []Task `json:"plan"`
	Cursor int    `json:"cursor"`
}

// Source is one gathered web source, pre-normalization. Field names follow
// the citation records emitted by the research backend.
type Source struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Label    string `json:"label"`
	Snippet  string `json:"snippet"`
	Value    string `json:"value"`
	ShortURL string `json:"short_url"`
}

// PlanPayload carries the plan and cursor produced by the planning stage.
type PlanPayload struct {
	Plan   []Task
	Cursor int
}

// QueryPayload carries generated search queries.
type QueryPayload struct {
	Queries   []string
	Rationale string
}

// WebResearchPayload carries the outcome of one web research pass.
type WebResearchPayload struct {
	SearchQuery           string
	ExecutedSearchQueries []string
	SourcesGathered       []Source
}

// ReflectionPayload carries the reflection verdict on gathered research.
type ReflectionPayload struct {
	IsSufficient    bool
	KnowledgeGap    string
	FollowUpQueries []string
}

// EnhancementPayload carries the content enhancement outcome.
type EnhancementPayload struct {
	Status    string
	Reasoning string
}

// EvaluationPayload carries the research quality evaluation.
type EvaluationPayload struct {
	IsSufficient bool
	Reasoning    string
}

// CompletionPayload carries a task completion notice.
type CompletionPayload struct {
	TaskID  string
	Summary string
}

// FinalizationPayload carries the finalized answer.
type FinalizationPayload struct {
	Answer string
}

// Event is one decoded stream record. A payload pointer is non-nil iff the
// corresponding discriminator key was present on the record. Multiple
// payloads may be set at once; presence, not exclusivity, is the signal.
// Unrecognized discriminators land in Unknown with their raw payloads.
type Event struct {
	Plan        *PlanPayload
	Query       *QueryPayload
	WebResearch *WebResearchPayload
	Reflection  *ReflectionPayload
	Enhancement *EnhancementPayload
	Evaluation  *EvaluationPayload
	Completion  *CompletionPayload
	Finalized   *FinalizationPayload

	Unknown map[string]any

	// fields holds the full decoded record for state extraction.
	fields map[string]any
}

// Decode maps one raw record onto the tagged union. It never fails: any
// payload shape is accepted and coerced field by field.
func Decode(raw map[string]any) Event {
	ev := Event{fields: raw}

	for key, val := range raw {
		payload := asObject(val)
		switch Stage(key) {
		case StagePlanProduced:
			ev.Plan = &PlanPayload{
				Plan:   asTasks(payload["plan"]),
				Cursor: asInt(payload["cursor"]),
			}
		case StageQueryGenerated:
			ev.Query = &QueryPayload{
				Queries:   asStrings(payload["queries"]),
				Rationale: asString(payload["rationale"]),
			}
		case StageWebResearch:
			ev.WebResearch = &WebResearchPayload{
				SearchQuery:           asString(payload["search_query"]),
				ExecutedSearchQueries: asStrings(payload["executed_search_queries"]),
				SourcesGathered:       asSources(payload["sources_gathered"]),
			}
		case StageReflection:
			ev.Reflection = &ReflectionPayload{
				IsSufficient:    asBool(payload["is_sufficient"]),
				KnowledgeGap:    asString(payload["knowledge_gap"]),
				FollowUpQueries: asStrings(payload["follow_up_queries"]),
			}
		case StageContentEnhanced:
			ev.Enhancement = &EnhancementPayload{
				Status:    asString(payload["status"]),
				Reasoning: asString(payload["reasoning"]),
			}
		case StageEvaluated:
			ev.Evaluation = &EvaluationPayload{
				IsSufficient: asBool(payload["is_sufficient"]),
				Reasoning:    asString(payload["reasoning"]),
			}
		case StageTaskCompleted:
			ev.Completion = &CompletionPayload{
				TaskID:  asString(payload["task_id"]),
				Summary: asString(payload["summary"]),
			}
		case StageAnswerFinalized:
			ev.Finalized = &FinalizationPayload{
				Answer: asString(payload["answer"]),
			}
		default:
			if ev.Unknown == nil {
				ev.Unknown = make(map[string]any)
			}
			ev.Unknown[key] = val
		}
	}

	return ev
}

// DecodeJSON decodes one raw JSON record. Only non-object JSON is an error;
// any object decodes successfully.
func DecodeJSON(data []byte) (Event, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("decode stream event: %w", err)
	}
	return Decode(raw), nil
}

// DecodeAll decodes a sequence of raw records, preserving order.
func DecodeAll(raws []map[string]any) []Event {
	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		events = append(events, Decode(raw))
	}
	return events
}
