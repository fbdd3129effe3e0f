package rules

// Resolve returns every ruleset in effect for a task: the structure scope
// first, then the task scope. Each scope contributes its explicit rulesets
// verbatim, or its bare rules wrapped in a single synthesized ruleset, or
// nothing. Same-named rulesets from different scopes are kept side by side.
func Resolve(structure, task Scope) []Ruleset {
	resolved := make([]Ruleset, 0, len(structure.Rulesets)+len(task.Rulesets)+2)
	resolved = append(resolved, scopeRulesets(structure, DefaultRulesetName)...)
	resolved = append(resolved, scopeRulesets(task, AdditionalRulesetName)...)
	return resolved
}

func scopeRulesets(s Scope, wrapName string) []Ruleset {
	switch {
	case len(s.Rulesets) > 0:
		return cloneRulesets(s.Rulesets)
	case len(s.Rules) > 0:
		return []Ruleset{NewRuleset(wrapName, s.Rules...)}
	default:
		return nil
	}
}
