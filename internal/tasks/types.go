package tasks

import (
	"errors"
	"strings"
)

const (
	defaultTaskType = "Unknown"
	defaultMode     = "Standard"
)

// SimplifyRequest is the JSON body of POST /ai/task-simplify.
type SimplifyRequest struct {
	TaskID            *string `json:"task_id"`
	TaskText          *string `json:"task_text"`
	TaskType          string  `json:"task_type"`
	AccessibilityMode string  `json:"accessibility_mode"`
	Model             *string `json:"model"`
}

// Validate reports missing required fields. Only presence is checked; the
// text itself is judged later by the prefilter.
func (r SimplifyRequest) Validate() error {
	var errs []error
	if r.TaskID == nil {
		errs = append(errs, errors.New("task_id required"))
	}
	if r.TaskText == nil || *r.TaskText == "" {
		errs = append(errs, errors.New("task_text required"))
	}
	return errors.Join(errs...)
}

// TaskRequest applies defaults. Call Validate first.
func (r SimplifyRequest) TaskRequest() TaskRequest {
	req := TaskRequest{
		TaskType:          r.TaskType,
		AccessibilityMode: r.AccessibilityMode,
	}
	if r.TaskID != nil {
		req.TaskID = *r.TaskID
	}
	if r.TaskText != nil {
		req.TaskText = *r.TaskText
	}
	if strings.TrimSpace(req.TaskType) == "" {
		req.TaskType = defaultTaskType
	}
	if strings.TrimSpace(req.AccessibilityMode) == "" {
		req.AccessibilityMode = defaultMode
	}
	if r.Model != nil {
		req.Model = strings.TrimSpace(*r.Model)
	}
	return req
}
