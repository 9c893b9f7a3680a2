package timeline

import (
	"fmt"
	"strings"

	"github.com/voriol/trailview/internal/domain/stream"
)

// Display fallbacks for web research extraction.
const (
	unknownQuery    = "Unknown Query"
	fallbackTitle   = "Source"
	fallbackLabel   = "Web"
	fallbackSnippet = "No preview available"
)

// synthesizeSteps scans the entire event sequence and emits steps in fixed
// stage precedence order, independent of arrival order. Single-slot stages
// keep only the last matching event; web research is repeatable and emits
// one step per event in arrival order. A step only exists once its
// generating event does, so no pending or in-progress step is ever
// produced here.
func synthesizeSteps(events []stream.Event) []Step {
	var (
		query       *stream.QueryPayload
		research    []*stream.WebResearchPayload
		reflection  *stream.ReflectionPayload
		enhancement *stream.EnhancementPayload
		evaluation  *stream.EvaluationPayload
		completion  *stream.CompletionPayload
	)

	for i := range events {
		ev := &events[i]
		if ev.Query != nil {
			query = ev.Query
		}
		if ev.WebResearch != nil {
			research = append(research, ev.WebResearch)
		}
		if ev.Reflection != nil {
			reflection = ev.Reflection
		}
		if ev.Enhancement != nil {
			enhancement = ev.Enhancement
		}
		if ev.Evaluation != nil {
			evaluation = ev.Evaluation
		}
		if ev.Completion != nil {
			completion = ev.Completion
		}
	}

	var steps []Step
	if query != nil {
		steps = append(steps, queryStep(query))
	}
	for _, wr := range research {
		steps = append(steps, webResearchStep(wr))
	}
	if reflection != nil {
		steps = append(steps, reflectionStep(reflection))
	}
	if enhancement != nil {
		steps = append(steps, enhancementStep(enhancement))
	}
	if evaluation != nil {
		steps = append(steps, evaluationStep(evaluation))
	}
	if completion != nil {
		steps = append(steps, completionStep(completion))
	}
	return steps
}

func queryStep(p *stream.QueryPayload) Step {
	return Step{
		Type:   StepQueryGeneration,
		Title:  "Search query generation",
		Status: StepStatusCompleted,
		Details: []Detail{{
			Type:    DetailSearchQueries,
			Content: strings.Join(p.Queries, ", "),
			Metadata: map[string]any{
				"queries": p.Queries,
				"count":   len(p.Queries),
			},
		}},
	}
}

func webResearchStep(p *stream.WebResearchPayload) Step {
	query := effectiveQuery(p)
	sources := normalizeSources(p.SourcesGathered)

	return Step{
		Type:   StepWebResearch,
		Title:  "Web research: " + query,
		Status: StepStatusCompleted,
		Details: []Detail{
			{
				Type:    DetailSearchQueries,
				Content: query,
			},
			{
				Type:    DetailSources,
				Content: fmt.Sprintf("Gathered %d sources", len(sources)),
				Metadata: map[string]any{
					"count":   len(sources),
					"sources": sources,
				},
			},
		},
	}
}

// effectiveQuery resolves the search query with the documented precedence:
// first executed query, then the declared query, then the fallback.
func effectiveQuery(p *stream.WebResearchPayload) string {
	if len(p.ExecutedSearchQueries) > 0 && p.ExecutedSearchQueries[0] != "" {
		return p.ExecutedSearchQueries[0]
	}
	if p.SearchQuery != "" {
		return p.SearchQuery
	}
	return unknownQuery
}

// normalizeSources maps raw gathered sources to display records with
// field-level fallbacks. Title and label fall back independently: a source
// with only a label still renders the generic title. An empty input yields
// an empty, non-nil list.
func normalizeSources(raw []stream.Source) []Source {
	sources := make([]Source, 0, len(raw))
	for _, s := range raw {
		n := Source{
			Title:   s.Title,
			Label:   s.Label,
			Snippet: s.Snippet,
		}
		if n.Title == "" {
			n.Title = fallbackTitle
		}
		switch {
		case s.Value != "":
			n.URL = s.Value
		case s.ShortURL != "":
			n.URL = s.ShortURL
		default:
			n.URL = s.URL
		}
		if n.Label == "" {
			n.Label = fallbackLabel
		}
		if n.Snippet == "" {
			n.Snippet = fallbackSnippet
		}
		sources = append(sources, n)
	}
	return sources
}

func reflectionStep(p *stream.ReflectionPayload) Step {
	verdict := "Research insufficient, more information needed"
	if p.IsSufficient {
		verdict = "Research sufficient to answer the question"
	}

	details := []Detail{{
		Type:    DetailAnalysis,
		Content: verdict,
	}}
	if p.KnowledgeGap != "" {
		details = append(details, Detail{
			Type:    DetailAnalysis,
			Content: "Knowledge gap: " + p.KnowledgeGap,
		})
	}
	if len(p.FollowUpQueries) > 0 {
		details = append(details, Detail{
			Type:    DetailDecision,
			Content: "Follow-up queries: " + strings.Join(p.FollowUpQueries, ", "),
			Metadata: map[string]any{
				"queries": p.FollowUpQueries,
				"count":   len(p.FollowUpQueries),
			},
		})
	}

	return Step{
		Type:    StepReflection,
		Title:   "Reflection",
		Status:  StepStatusCompleted,
		Details: details,
	}
}

// enhancementMessages is the fixed status-to-message table for the content
// enhancement stage. Unknown statuses render as "Status: <raw value>".
var enhancementMessages = map[string]string{
	"enhanced":  "Content enhanced with full-page crawling",
	"completed": "Content enhancement completed",
	"skipped":   "Content enhancement skipped",
	"failed":    "Content enhancement failed",
}

func enhancementStep(p *stream.EnhancementPayload) Step {
	status := StepStatusCompleted
	if p.Status == "skipped" {
		status = StepStatusSkipped
	}

	message, ok := enhancementMessages[p.Status]
	if !ok {
		message = "Status: " + p.Status
	}

	details := []Detail{{
		Type:     DetailDecision,
		Content:  message,
		Metadata: map[string]any{"status": p.Status},
	}}
	if p.Reasoning != "" {
		details = append(details, Detail{
			Type:    DetailAnalysis,
			Content: p.Reasoning,
		})
	}

	return Step{
		Type:    StepContentEnhancement,
		Title:   "Content enhancement",
		Status:  status,
		Details: details,
	}
}

func evaluationStep(p *stream.EvaluationPayload) Step {
	verdict := "Evaluation: research insufficient"
	if p.IsSufficient {
		verdict = "Evaluation: research sufficient"
	}

	details := []Detail{{
		Type:    DetailAnalysis,
		Content: verdict,
	}}
	if p.Reasoning != "" {
		details = append(details, Detail{
			Type:    DetailAnalysis,
			Content: p.Reasoning,
		})
	}

	return Step{
		Type:    StepEvaluation,
		Title:   "Research evaluation",
		Status:  StepStatusCompleted,
		Details: details,
	}
}

func completionStep(p *stream.CompletionPayload) Step {
	content := p.Summary
	if content == "" {
		content = "Task completed"
	}

	return Step{
		Type:   StepCompletion,
		Title:  "Task completed",
		Status: StepStatusCompleted,
		Details: []Detail{{
			Type:    DetailDecision,
			Content: content,
		}},
	}
}
