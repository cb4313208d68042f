package tasks

import (
	"strings"
	"unicode/utf8"

	"equitask-backend/internal/rules"
)

const minTaskTextLen = 10

// Prefilter rejects task text that is not worth sending to the model.
type Prefilter struct {
	rules *rules.Set
}

func NewPrefilter(rs *rules.Set) Prefilter {
	if rs == nil {
		rs = rules.Default()
	}
	return Prefilter{rules: rs}
}

// IsVague reports whether the text is too short or is a known vague phrase.
func (p Prefilter) IsVague(taskText string) bool {
	t := strings.ToLower(strings.TrimSpace(taskText))
	if utf8.RuneCountInString(t) < minTaskTextLen {
		return true
	}
	return p.rules.VagueTask.Match(t)
}
