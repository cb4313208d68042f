package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompts_Standard(t *testing.T) {
	p := BuildPrompts("Reporting", "Standard", false)

	lines := strings.Split(p.System, "\n")
	require.Len(t, lines, len(baseRules)+1)
	assert.Equal(t, "You are an AI Task Simplifier.", lines[0])
	assert.Equal(t, "Task type: Reporting.", lines[len(lines)-1])
	assert.Equal(t, "User task:\n{{TASK_TEXT}}", p.User)
}

func TestBuildPrompts_Modes(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{mode: "Simplified", want: "Max 12 words per step."},
		{mode: "VOICE-FIRST", want: "Use short spoken-friendly sentences."},
		{mode: "visual-assist", want: "Make steps skimmable and checklist-like."},
		{mode: "Assistive", want: "Use supportive tone. Avoid long sentences."},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			p := BuildPrompts("Unknown", tt.mode, false)
			assert.Contains(t, p.System, tt.want)
			assert.NotContains(t, p.System, "Be extra strict")
		})
	}

	t.Run("unrecognized mode gets base rules only", func(t *testing.T) {
		assert.Equal(t, BuildPrompts("Unknown", "Standard", false), BuildPrompts("Unknown", "Braille", false))
		assert.Equal(t, BuildPrompts("Unknown", "Standard", false), BuildPrompts("Unknown", "", false))
	})
}

func TestBuildPrompts_Strict(t *testing.T) {
	p := BuildPrompts("Technical", "Simplified", true)

	assert.Contains(t, p.System, "Be extra strict: if missing outcome/audience/format, ask clarification.")
	assert.Contains(t, p.System, "Do not exceed 6 steps unless unavoidable.")
	// strict rules follow the mode rules and precede the task type line
	assert.Less(t, strings.Index(p.System, "Prefer 3–6 steps."), strings.Index(p.System, "Be extra strict"))
	assert.True(t, strings.HasSuffix(p.System, "\nTask type: Technical."))
}

func TestBuildPrompts_Deterministic(t *testing.T) {
	assert.Equal(t, BuildPrompts("Reporting", "Voice-First", true), BuildPrompts("Reporting", "Voice-First", true))
}

func TestPromptsWithTask(t *testing.T) {
	p := BuildPrompts("Unknown", "Standard", false).WithTask(`Send "Q3" numbers {{x}} to finance`)
	assert.Equal(t, "User task:\nSend \"Q3\" numbers {{x}} to finance", p.User)
}
