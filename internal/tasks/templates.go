package tasks

import "strings"

var (
	reportingTemplate = []string{"Collect info.", "Fill template.", "Write summary.", "Review.", "Submit."}
	technicalTemplate = []string{"Describe problem.", "Check changes.", "Try simplest fix.", "Record errors.", "Escalate with details."}
	genericTemplate   = []string{"Define goal.", "List what you need.", "Do first step.", "Check progress.", "Finish and confirm."}
)

// TemplateFor returns the canned checklist for a task type.
func TemplateFor(taskType string) []string {
	var src []string
	switch strings.ToLower(taskType) {
	case "reporting":
		src = reportingTemplate
	case "technical":
		src = technicalTemplate
	default:
		src = genericTemplate
	}
	return append([]string(nil), src...)
}

func templateSteps(taskType string) []Step {
	lines := TemplateFor(taskType)
	steps := make([]Step, len(lines))
	for i, line := range lines {
		steps[i] = Step{StepNumber: i + 1, Instruction: line}
	}
	return steps
}
