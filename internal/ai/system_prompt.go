package ai

// Rule lines that make up the system prompt. Order matters: the model sees
// them top to bottom.
var baseRules = []string{
	"You are an AI Task Simplifier.",
	"Break the user's task into clear, numbered steps.",
	"One action per step. Do NOT combine actions.",
	"Use simple, direct language.",
	"Return ONLY what the JSON schema requests.",
	"If the task is unclear, set clarification_needed=true and ask ONE question.",
	"Lower confidence_score when uncertain.",
}

// Keyed by lower-cased accessibility mode. Standard has no extra rules.
var modeRules = map[string][]string{
	"simplified": {
		"Use very simple words.",
		"Max 12 words per step.",
		"Prefer 3–6 steps.",
	},
	"voice-first": {
		"Use short spoken-friendly sentences.",
		"Avoid visual references (e.g., 'see chart').",
	},
	"visual-assist": {
		"Make steps skimmable and checklist-like.",
	},
	"assistive": {
		"Use supportive tone. Avoid long sentences.",
	},
}

// Appended on the retry attempt.
var strictRules = []string{
	"Be extra strict: if missing outcome/audience/format, ask clarification.",
	"Do not exceed 6 steps unless unavoidable.",
}

const userPromptTemplate = "User task:\n" + TaskPlaceholder
