package ai

import "strings"

const (
	// PromptVersion identifies the rule set below in result telemetry.
	PromptVersion = "v1.0"

	// TaskPlaceholder is replaced verbatim with the user's task text.
	TaskPlaceholder = "{{TASK_TEXT}}"
)

type Prompts struct {
	System string
	User   string
}

// BuildPrompts assembles the system prompt and the user prompt template for
// one attempt. Unknown modes are treated as Standard.
func BuildPrompts(taskType, mode string, strict bool) Prompts {
	rules := make([]string, 0, len(baseRules)+len(strictRules)+3)
	rules = append(rules, baseRules...)

	m := strings.ToLower(strings.TrimSpace(mode))
	rules = append(rules, modeRules[m]...)

	if strict {
		rules = append(rules, strictRules...)
	}

	var b strings.Builder
	b.WriteString(strings.Join(rules, "\n"))
	b.WriteString("\nTask type: ")
	b.WriteString(taskType)
	b.WriteString(".")

	return Prompts{
		System: b.String(),
		User:   userPromptTemplate,
	}
}

// WithTask substitutes the task text into the user prompt. No escaping is
// applied.
func (p Prompts) WithTask(taskText string) Prompts {
	p.User = strings.ReplaceAll(p.User, TaskPlaceholder, taskText)
	return p
}
