package tasks

import (
	"encoding/json"
	"fmt"
)

// TaskRequest is the pipeline input.
type TaskRequest struct {
	TaskID            string
	TaskText          string
	TaskType          string
	AccessibilityMode string
	Model             string // empty means the simplifier's default model
}

type Step struct {
	StepNumber  int    `json:"step_number"`
	Instruction string `json:"instruction"`
}

// Status is the terminal state of one simplification.
type Status uint8

const (
	StatusAccept Status = iota + 1
	StatusClarify
	StatusTemplate
)

func (s Status) String() string {
	switch s {
	case StatusAccept:
		return "ACCEPT"
	case StatusClarify:
		return "CLARIFY"
	case StatusTemplate:
		return "TEMPLATE"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusAccept, StatusClarify, StatusTemplate:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
}

type FallbackKind uint8

const (
	FallbackNone FallbackKind = iota
	FallbackClarification
	FallbackTemplate
)

func (k FallbackKind) String() string {
	switch k {
	case FallbackNone:
		return "NONE"
	case FallbackClarification:
		return "CLARIFICATION"
	case FallbackTemplate:
		return "TEMPLATE"
	default:
		return fmt.Sprintf("FallbackKind(%d)", uint8(k))
	}
}

// Fallback is one of [NoFallback], [Clarification] or [TemplateFallback].
type Fallback interface {
	Kind() FallbackKind
	sealed()
}

type NoFallback struct{}

type Clarification struct {
	Message string
}

type TemplateFallback struct {
	Message string
	Steps   []Step
}

func (NoFallback) Kind() FallbackKind       { return FallbackNone }
func (Clarification) Kind() FallbackKind    { return FallbackClarification }
func (TemplateFallback) Kind() FallbackKind { return FallbackTemplate }

func (NoFallback) sealed()       {}
func (Clarification) sealed()    {}
func (TemplateFallback) sealed() {}

// Result is the response envelope for one request.
type Result struct {
	TaskID          string
	Status          Status
	ConfidenceScore float64
	Reasons         []string
	SimplifiedSteps []Step
	Fallback        Fallback
	Telemetry       map[string]any
}

type fallbackJSON struct {
	Type          string `json:"type"`
	Message       string `json:"message"`
	TemplateSteps []Step `json:"template_steps"`
}

type resultJSON struct {
	TaskID          string         `json:"task_id"`
	Status          Status         `json:"status"`
	ConfidenceScore float64        `json:"confidence_score"`
	Reasons         []string       `json:"reasons"`
	SimplifiedSteps []Step         `json:"simplified_steps"`
	Fallback        fallbackJSON   `json:"fallback"`
	Telemetry       map[string]any `json:"telemetry"`
}

// MarshalJSON writes the envelope with every field present; empty lists are
// written as [] and never null.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		TaskID:          r.TaskID,
		Status:          r.Status,
		ConfidenceScore: r.ConfidenceScore,
		Reasons:         nonNil(r.Reasons),
		SimplifiedSteps: nonNil(r.SimplifiedSteps),
		Fallback:        fallbackJSON{TemplateSteps: []Step{}},
		Telemetry:       r.Telemetry,
	}
	if out.Telemetry == nil {
		out.Telemetry = map[string]any{}
	}

	fb := r.Fallback
	if fb == nil {
		fb = NoFallback{}
	}
	out.Fallback.Type = fb.Kind().String()
	switch f := fb.(type) {
	case NoFallback:
	case Clarification:
		out.Fallback.Message = f.Message
	case TemplateFallback:
		out.Fallback.Message = f.Message
		out.Fallback.TemplateSteps = nonNil(f.Steps)
	}

	return json.Marshal(out)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
