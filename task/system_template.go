package task

import (
	"github.com/teranos/prompttask/template"
)

// SystemTemplateGenerator produces the system message text for a task.
type SystemTemplateGenerator interface {
	GenerateSystemTemplate(t *PromptTask) (string, error)
}

// SystemTemplateFunc adapts a function to SystemTemplateGenerator.
type SystemTemplateFunc func(t *PromptTask) (string, error)

func (f SystemTemplateFunc) GenerateSystemTemplate(t *PromptTask) (string, error) {
	return f(t)
}

// DefaultSystemTemplate renders template.PromptTaskSystem with the task's
// resolved rulesets bound as "rulesets". A nil Renderer uses the embedded
// default templates.
type DefaultSystemTemplate struct {
	Renderer template.Renderer
}

func (g DefaultSystemTemplate) GenerateSystemTemplate(t *PromptTask) (string, error) {
	r := g.Renderer
	if r == nil {
		reg, err := template.Default()
		if err != nil {
			return "", err
		}
		r = reg
	}
	return r.Render(template.PromptTaskSystem, map[string]any{
		"rulesets": t.AllRulesets(),
	})
}
