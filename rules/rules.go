// Package rules holds the behavioral directives injected into a prompt task's
// system message and resolves them across the structure and task scopes.
package rules

import (
	"github.com/teranos/prompttask/errors"
)

// Names given to rulesets synthesized from bare rules.
const (
	DefaultRulesetName    = "Default Ruleset"
	AdditionalRulesetName = "Additional Ruleset"
)

// Rule is a single opaque instruction.
type Rule struct {
	Value string `toml:"value" yaml:"value" json:"value"`
}

// NewRule creates a Rule.
func NewRule(value string) Rule {
	return Rule{Value: value}
}

// NewRules creates one Rule per value, in order.
func NewRules(values ...string) []Rule {
	out := make([]Rule, 0, len(values))
	for _, v := range values {
		out = append(out, Rule{Value: v})
	}
	return out
}

func (r Rule) String() string {
	return r.Value
}

// Ruleset is a named, ordered group of rules. Earlier rules carry higher priority.
type Ruleset struct {
	Name  string `toml:"name" yaml:"name" json:"name"`
	Rules []Rule `toml:"rules" yaml:"rules" json:"rules"`
}

// NewRuleset creates a Ruleset owning its own copy of rules.
func NewRuleset(name string, rules ...Rule) Ruleset {
	return Ruleset{Name: name, Rules: cloneRules(rules)}
}

// Values returns the rule strings in declaration order.
func (rs Ruleset) Values() []string {
	out := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		out[i] = r.Value
	}
	return out
}

// Scope is what a single owner (structure or task) declares.
type Scope struct {
	Rules    []Rule
	Rulesets []Ruleset
}

// Empty reports whether the scope contributes nothing.
func (s Scope) Empty() bool {
	return len(s.Rules) == 0 && len(s.Rulesets) == 0
}

// ValidateScope rejects a scope that declares both bare rules and rulesets.
// Ruleset names are free-form; an empty name is valid.
// label names the scope in the error ("task", "structure").
func ValidateScope(s Scope, label string) error {
	if len(s.Rules) > 0 && len(s.Rulesets) > 0 {
		err := errors.NewConfigurationError("%s can't have both rules and rulesets specified (%d rules, %d rulesets)",
			label, len(s.Rules), len(s.Rulesets))
		return errors.WithHint(err, "move the bare rules into one of the rulesets, or drop the rulesets")
	}
	return nil
}

func cloneRules(in []Rule) []Rule {
	if in == nil {
		return nil
	}
	out := make([]Rule, len(in))
	copy(out, in)
	return out
}

func cloneRulesets(in []Ruleset) []Ruleset {
	out := make([]Ruleset, len(in))
	for i, rs := range in {
		out[i] = NewRuleset(rs.Name, rs.Rules...)
	}
	return out
}
