// Package rules holds the heuristic pattern sets used to pre-filter task text
// and to judge model-produced steps. Rule sets are plain YAML so they can be
// swapped or extended without code changes.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Matcher reports whether a piece of text trips a rule.
type Matcher interface {
	Match(text string) bool
}

// PatternMatcher matches when any of its regular expressions matches.
type PatternMatcher struct {
	patterns []*regexp.Regexp
}

// NewPatternMatcher compiles patterns into a [PatternMatcher].
func NewPatternMatcher(patterns []string) (PatternMatcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return PatternMatcher{}, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return PatternMatcher{patterns: compiled}, nil
}

func (m PatternMatcher) Match(text string) bool {
	for _, re := range m.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// SubstringMatcher matches when text contains any of its needles, ignoring case.
type SubstringMatcher struct {
	needles []string
}

func NewSubstringMatcher(needles []string) SubstringMatcher {
	lowered := make([]string, 0, len(needles))
	for _, n := range needles {
		if n != "" {
			lowered = append(lowered, strings.ToLower(n))
		}
	}
	return SubstringMatcher{needles: lowered}
}

func (m SubstringMatcher) Match(text string) bool {
	t := strings.ToLower(text)
	for _, n := range m.needles {
		if strings.Contains(t, n) {
			return true
		}
	}
	return false
}

// File is the on-disk YAML shape of a rule set.
type File struct {
	VagueTaskPatterns   []string `yaml:"vague_task_patterns"`
	FillerStepPatterns  []string `yaml:"filler_step_patterns"`
	CompoundActionHints []string `yaml:"compound_action_hints"`
	ReportingKeywords   []string `yaml:"reporting_keywords"`
}

// Set is a compiled rule set.
type Set struct {
	// VagueTask flags task text that is too vague to send to the model.
	VagueTask Matcher
	// FillerStep flags step instructions that carry no concrete action.
	FillerStep Matcher
	// CompoundAction flags step instructions that combine several actions.
	CompoundAction Matcher
	// ReportingKeywords must appear in the steps of a reporting task.
	ReportingKeywords Matcher
}

// Parse compiles a YAML rule set.
func Parse(data []byte) (*Set, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return Compile(f)
}

// Compile turns a [File] into a [Set].
func Compile(f File) (*Set, error) {
	if len(f.CompoundActionHints) == 0 {
		return nil, errors.New("rules: compound_action_hints must not be empty")
	}
	if len(f.ReportingKeywords) == 0 {
		return nil, errors.New("rules: reporting_keywords must not be empty")
	}

	vague, err := NewPatternMatcher(f.VagueTaskPatterns)
	if err != nil {
		return nil, fmt.Errorf("vague_task_patterns: %w", err)
	}
	filler, err := NewPatternMatcher(f.FillerStepPatterns)
	if err != nil {
		return nil, fmt.Errorf("filler_step_patterns: %w", err)
	}

	return &Set{
		VagueTask:         vague,
		FillerStep:        filler,
		CompoundAction:    NewSubstringMatcher(f.CompoundActionHints),
		ReportingKeywords: NewSubstringMatcher(f.ReportingKeywords),
	}, nil
}

// Load reads a rule set from path. An empty path yields the built-in set.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file %q: %w", path, err)
	}
	return Parse(data)
}

// Default returns the built-in rule set.
func Default() *Set {
	set, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("built-in rules are invalid: %v", err))
	}
	return set
}
