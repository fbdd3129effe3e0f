// Package template renders the text templates used to build system prompts.
//
// Templates are identified by a slash-separated id without extension, e.g.
// "tasks/prompt_task/system". The defaults are embedded in the binary; callers
// can register overrides at runtime.
package template

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/teranos/prompttask/errors"
)

// PromptTaskSystem is the id of the default prompt task system template.
// It expects a "rulesets" binding holding []rules.Ruleset.
const PromptTaskSystem = "tasks/prompt_task/system"

const templateExt = ".tmpl"

//go:embed templates
var embedded embed.FS

// Renderer renders a template by id with the given bindings.
type Renderer interface {
	Render(id string, bindings map[string]any) (string, error)
}

// Registry is a Renderer backed by parsed text/templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
	defaultRegistryErr  error
)

// Default returns the shared registry holding the embedded templates.
func Default() (*Registry, error) {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = NewRegistry()
	})
	return defaultRegistry, defaultRegistryErr
}

// NewRegistry creates a registry preloaded with the embedded templates.
func NewRegistry() (*Registry, error) {
	r := &Registry{templates: make(map[string]*template.Template)}

	err := fs.WalkDir(embedded, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != templateExt {
			return err
		}
		data, err := embedded.ReadFile(p)
		if err != nil {
			return err
		}
		id := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), templateExt)
		return r.Register(id, string(data))
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load embedded templates")
	}
	return r, nil
}

// Register parses text and stores it under id, replacing any previous template.
func (r *Registry) Register(id, text string) error {
	tmpl, err := Parse(id, text)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[id] = tmpl
	return nil
}

// Render executes the template registered under id.
func (r *Registry) Render(id string, bindings map[string]any) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[id]
	r.mu.RUnlock()
	if !ok {
		return "", errors.NewNotFoundError("template %q", id)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, bindings); err != nil {
		return "", errors.Wrapf(err, "failed to render template %q", id)
	}
	return b.String(), nil
}

// IDs returns the registered template ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parse compiles a template with the helper functions available to all
// prompt templates. Missing bindings are an error rather than "<no value>".
func Parse(id, text string) (*template.Template, error) {
	tmpl, err := template.New(id).
		Option("missingkey=error").
		Funcs(funcs).
		Parse(text)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "invalid template "+id)
	}
	return tmpl, nil
}

var funcs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
	"trim": strings.TrimSpace,
}
