package normalize

import (
	"regexp"
	"strings"
)

// Rule is a single text correction.
type Rule interface {
	Apply(s string) string
}

// Replacement substitutes every non-overlapping occurrence of Old with New,
// scanning left to right.
type Replacement struct {
	Old string
	New string
}

// Apply implements Rule.
func (r Replacement) Apply(s string) string {
	return strings.ReplaceAll(s, r.Old, r.New)
}

// Rewrite replaces every match of Pattern with Template, which may refer to
// capture groups as $1, $2 and so on.
type Rewrite struct {
	Pattern  *regexp.Regexp
	Template string
}

// Apply implements Rule.
func (r Rewrite) Apply(s string) string {
	return r.Pattern.ReplaceAllString(s, r.Template)
}

// RuleFunc adapts an ordinary function to the Rule interface.
type RuleFunc func(string) string

// Apply implements Rule.
func (f RuleFunc) Apply(s string) string {
	return f(s)
}

// Layer is a named, ordered group of rules. Rules run in slice order and
// each sees the output of the one before it.
type Layer struct {
	Name  string
	Rules []Rule
}

// Apply runs every rule of the layer over s.
func (l Layer) Apply(s string) string {
	for _, r := range l.Rules {
		s = r.Apply(s)
	}
	return s
}

// rewrite compiles pattern at package init.
func rewrite(pattern, template string) Rewrite {
	return Rewrite{Pattern: regexp.MustCompile(pattern), Template: template}
}

func replacements(pairs []Replacement) []Rule {
	rules := make([]Rule, len(pairs))
	for i, p := range pairs {
		rules[i] = p
	}
	return rules
}
