package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/rules"
)

func TestDefault_HasPromptTaskSystem(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Contains(t, r.IDs(), PromptTaskSystem)
}

func TestRender_PromptTaskSystem_NoRulesets(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	out, err := r.Render(PromptTaskSystem, map[string]any{"rulesets": []rules.Ruleset{}})
	require.NoError(t, err)
	assert.Equal(t, "You are a helpful assistant.", out)
}

func TestRender_PromptTaskSystem_WithRulesets(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	rulesets := []rules.Ruleset{
		rules.NewRuleset("Default Ruleset", rules.NewRule("Be concise")),
		rules.NewRuleset("Tone", rules.NewRules("Be polite", "Avoid jargon")...),
	}

	out, err := r.Render(PromptTaskSystem, map[string]any{"rulesets": rulesets})
	require.NoError(t, err)

	assert.Contains(t, out, "Ruleset name: Default Ruleset\n\"Default Ruleset\" rules:\nRule #1\nBe concise")
	assert.Contains(t, out, "Ruleset name: Tone\n\"Tone\" rules:\nRule #1\nBe polite\nRule #2\nAvoid jargon")
	assert.Less(t, strings.Index(out, "Default Ruleset"), strings.Index(out, "Tone"),
		"rulesets must render in declaration order")
	assert.NotContains(t, out, "helpful assistant")
}

func TestRender_MissingBinding(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.Render(PromptTaskSystem, map[string]any{})
	assert.Error(t, err)
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, err = r.Render("tasks/missing", nil)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestRegister_Override(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	require.NoError(t, r.Register(PromptTaskSystem, `{{ len .rulesets }} rulesets`))

	out, err := r.Render(PromptTaskSystem, map[string]any{"rulesets": []rules.Ruleset{{Name: "a"}, {Name: "b"}}})
	require.NoError(t, err)
	assert.Equal(t, "2 rulesets", out)
}

func TestRegister_InvalidTemplate(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	err = r.Register("broken", `{{ if }}`)
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestFuncs(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	require.NoError(t, r.Register("funcs", `{{ inc 1 }}|{{ join .items ", " }}|{{ trim .pad }}`))
	out, err := r.Render("funcs", map[string]any{"items": []string{"a", "b"}, "pad": "  x  "})
	require.NoError(t, err)
	assert.Equal(t, "2|a, b|x", out)
}
