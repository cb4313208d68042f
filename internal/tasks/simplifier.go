package tasks

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"equitask-backend/internal/ai"
	"equitask-backend/internal/config"
	"equitask-backend/internal/rules"
)

//go:generate go tool mockgen -source=simplifier.go -destination=invoker_mock_test.go -package=tasks

const (
	// ConfAccept marks a high-confidence response. It is reported in
	// telemetry only; any response that passes validation is accepted.
	ConfAccept = 0.85

	// MaxRetry is the number of attempts allowed after the first one.
	MaxRetry = 1
)

const (
	msgVagueInput      = "Please add outcome, deadline, and required format (if any)."
	msgNeedsContext    = "What is the expected output and who is it for?"
	msgUnavailable     = "AI service unavailable. Use this starter checklist."
	msgUnreliable      = "Could not simplify reliably. Use this starter checklist."
	reasonClarify      = "Clarification required"
	reasonTemplateUsed = "Template fallback used"
)

// Invoker performs one structured model call.
type Invoker interface {
	Invoke(ctx context.Context, call ai.Call) (ai.StructuredResponse, error)
}

type attemptSettings struct {
	strict      bool
	temperature float64
}

// Attempt 0 is lenient; the retry tightens the prompt and removes sampling
// randomness.
var attemptPlan = [MaxRetry + 1]attemptSettings{
	{strict: false, temperature: 0.2},
	{strict: true, temperature: 0.0},
}

// Simplifier runs the prefilter, prompt, invoke, validate, retry-or-fallback
// pipeline for one request at a time. It holds no per-request state and is
// safe for concurrent use.
type Simplifier struct {
	invoker      Invoker
	prefilter    Prefilter
	validator    Validator
	defaultModel string
	logger       *slog.Logger
}

type Option func(*Simplifier)

// WithRules replaces the built-in heuristic rule set.
func WithRules(rs *rules.Set) Option {
	return func(s *Simplifier) {
		s.prefilter = NewPrefilter(rs)
		s.validator = NewValidator(rs)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simplifier) { s.logger = logger }
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(s *Simplifier) { s.defaultModel = model }
}

func NewSimplifier(invoker Invoker, opts ...Option) *Simplifier {
	rs := rules.Default()
	s := &Simplifier{
		invoker:      invoker,
		prefilter:    NewPrefilter(rs),
		validator:    NewValidator(rs),
		defaultModel: config.DefaultModel,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simplify always returns a well-formed result; model and validation failures
// end in a fallback, never in an error.
func (s *Simplifier) Simplify(ctx context.Context, req TaskRequest) Result {
	log := s.logger.With("task_id", req.TaskID, "task_type", req.TaskType, "mode", req.AccessibilityMode)

	if s.prefilter.IsVague(req.TaskText) {
		log.Info("task rejected by prefilter", "text_len", len(req.TaskText))
		return clarificationResult(req.TaskID, msgVagueInput, telemetry(0, "vague_input", nil))
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	var lastErrors []string
	for attempt, settings := range attemptPlan {
		last := attempt == MaxRetry

		prompts := ai.BuildPrompts(req.TaskType, req.AccessibilityMode, settings.strict).WithTask(req.TaskText)
		log.Debug("invoking model", "attempt", attempt+1, "strict", settings.strict, "temperature", settings.temperature, "model", model)

		resp, err := s.invoker.Invoke(ctx, ai.Call{
			Model:        model,
			SystemPrompt: prompts.System,
			UserPrompt:   prompts.User,
			Temperature:  settings.temperature,
		})
		if err != nil {
			attrs := []any{"attempt", attempt + 1, "error", err}
			var mce *ai.ModelCallError
			if errors.As(err, &mce) {
				attrs = append(attrs, "op", mce.Op)
			}
			log.Warn("model call failed", attrs...)

			if !last {
				continue
			}
			return templateResult(req.TaskID, msgUnavailable, req.TaskType, telemetry(attempt+1, "model_unavailable", lastErrors))
		}

		resp.TaskID = req.TaskID
		outcome := s.validator.Validate(req.TaskText, req.TaskType, resp)
		lastErrors = outcome.Errors

		if outcome.Passed {
			log.Info("task simplified", "attempt", attempt+1, "steps", len(resp.SimplifiedSteps), "confidence", resp.ConfidenceScore)
			return acceptResult(resp, attempt+1)
		}

		log.Warn("validation failed", "attempt", attempt+1, "errors", outcome.Errors)
	}

	if slices.ContainsFunc(lastErrors, isClarifyError) {
		return clarificationResult(req.TaskID, msgNeedsContext, telemetry(len(attemptPlan), "validation_failed", lastErrors))
	}
	return templateResult(req.TaskID, msgUnreliable, req.TaskType, telemetry(len(attemptPlan), "validation_failed", lastErrors))
}

func acceptResult(resp ai.StructuredResponse, attempt int) Result {
	steps := make([]Step, len(resp.SimplifiedSteps))
	for i, s := range resp.SimplifiedSteps {
		steps[i] = Step{StepNumber: s.StepNumber, Instruction: s.Instruction}
	}
	return Result{
		TaskID:          resp.TaskID,
		Status:          StatusAccept,
		ConfidenceScore: resp.ConfidenceScore,
		Reasons:         []string{},
		SimplifiedSteps: steps,
		Fallback:        NoFallback{},
		Telemetry: map[string]any{
			"prompt_version":    ai.PromptVersion,
			"attempt":           attempt,
			"validation_passed": true,
			"high_confidence":   resp.ConfidenceScore >= ConfAccept,
		},
	}
}

func clarificationResult(taskID, message string, tel map[string]any) Result {
	return Result{
		TaskID:          taskID,
		Status:          StatusClarify,
		ConfidenceScore: 0,
		Reasons:         []string{reasonClarify},
		SimplifiedSteps: []Step{},
		Fallback:        Clarification{Message: message},
		Telemetry:       tel,
	}
}

func templateResult(taskID, message, taskType string, tel map[string]any) Result {
	return Result{
		TaskID:          taskID,
		Status:          StatusTemplate,
		ConfidenceScore: 0,
		Reasons:         []string{reasonTemplateUsed},
		SimplifiedSteps: []Step{},
		Fallback:        TemplateFallback{Message: message, Steps: templateSteps(taskType)},
		Telemetry:       tel,
	}
}

func telemetry(attempts int, fallbackReason string, validationErrors []string) map[string]any {
	tel := map[string]any{
		"prompt_version":    ai.PromptVersion,
		"attempt":           attempts,
		"validation_passed": false,
		"fallback_reason":   fallbackReason,
	}
	if len(validationErrors) > 0 {
		tel["validation_errors"] = slices.Clone(validationErrors)
	}
	return tel
}
