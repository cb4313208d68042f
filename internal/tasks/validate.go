package tasks

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"equitask-backend/internal/ai"
	"equitask-backend/internal/rules"
)

const (
	// ConfMin is the lowest model confidence a response may carry.
	ConfMin = 0.70

	minInstructionLen = 6
	maxKeywords       = 6
)

const (
	errNoSteps        = "No steps returned"
	errNotSequential  = "Steps not sequential"
	errMultipleAction = "Multiple actions detected in a step"
	errVagueSteps     = "Vague/non-actionable steps detected"
	errRelevance      = "Relevance check failed"
)

var keywordRe = regexp.MustCompile(`[a-zA-Z]{4,}`)

type ValidationOutcome struct {
	Passed bool
	Errors []string
}

// Validator applies the acceptance checks to a parsed model response.
type Validator struct {
	rules *rules.Set
}

func NewValidator(rs *rules.Set) Validator {
	if rs == nil {
		rs = rules.Default()
	}
	return Validator{rules: rs}
}

// Validate runs every check and collects one error per failed check.
func (v Validator) Validate(taskText, taskType string, resp ai.StructuredResponse) ValidationOutcome {
	var errs []string
	steps := resp.SimplifiedSteps

	if len(steps) == 0 {
		errs = append(errs, errNoSteps)
	}

	if resp.ConfidenceScore < ConfMin {
		errs = append(errs, fmt.Sprintf("Low confidence: %.2f", resp.ConfidenceScore))
	}

	if len(steps) > 0 {
		if !stepsSequential(steps) {
			errs = append(errs, errNotSequential)
		}
		if !v.oneActionPerStep(steps) {
			errs = append(errs, errMultipleAction)
		}
		if v.hasVagueSteps(steps) {
			errs = append(errs, errVagueSteps)
		}
		if !v.relevant(taskText, taskType, steps) {
			errs = append(errs, errRelevance)
		}
	}

	return ValidationOutcome{Passed: len(errs) == 0, Errors: errs}
}

func stepsSequential(steps []ai.Step) bool {
	for i, s := range steps {
		if s.StepNumber != i+1 {
			return false
		}
	}
	return true
}

func (v Validator) oneActionPerStep(steps []ai.Step) bool {
	for _, s := range steps {
		if v.rules.CompoundAction.Match(s.Instruction) {
			return false
		}
	}
	return true
}

func (v Validator) hasVagueSteps(steps []ai.Step) bool {
	for _, s := range steps {
		instr := strings.ToLower(strings.TrimSpace(s.Instruction))
		if v.rules.FillerStep.Match(instr) || utf8.RuneCountInString(instr) < minInstructionLen {
			return true
		}
	}
	return false
}

// relevant requires keyword overlap between the task and the steps. Reporting
// tasks must also mention a reporting artefact.
func (v Validator) relevant(taskText, taskType string, steps []ai.Step) bool {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = s.Instruction
	}
	stepText := strings.ToLower(strings.Join(parts, " "))

	if strings.EqualFold(taskType, "reporting") && !v.rules.ReportingKeywords.Match(stepText) {
		return false
	}

	for _, kw := range taskKeywords(taskText) {
		if strings.Contains(stepText, kw) {
			return true
		}
	}
	return false
}

func taskKeywords(taskText string) []string {
	return keywordRe.FindAllString(strings.ToLower(taskText), maxKeywords)
}

func isClarifyError(e string) bool {
	return strings.Contains(e, errRelevance) || strings.Contains(strings.ToLower(e), "vague")
}
