// Package task implements the prompt task: it composes rules from its own
// scope and its structure's scope, builds the prompt stack for the current
// input and delegates one synchronous run to a prompt driver.
package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/prompttask/ai/driver"
	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/logger"
	"github.com/teranos/prompttask/promptstack"
	"github.com/teranos/prompttask/rules"
)

// Structure is the container a task belongs to. A task only reads from it.
type Structure interface {
	Rulesets() []rules.Ruleset
	Rules() []rules.Rule
	// Memory returns nil when the structure keeps no conversation memory.
	Memory() Memory
	// PromptDriver returns nil when the structure has no default driver.
	PromptDriver() driver.PromptDriver
}

// Memory contributes prior conversation to a prompt stack. It runs after the
// system message and before the user message.
type Memory interface {
	AddToPromptStack(stack *promptstack.Stack)
}

// State is the externally observable execution state of a task.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// PromptTask turns its input into a prompt stack and runs it through a driver.
//
// A task is driven by one caller at a time; a second concurrent Run fails
// with errors.ErrTaskBusy.
type PromptTask struct {
	id        string
	rules     []rules.Rule
	rulesets  []rules.Ruleset
	driver    driver.PromptDriver
	generator SystemTemplateGenerator
	logger    *zap.SugaredLogger

	mu        sync.RWMutex
	input     *artifact.TextArtifact
	output    artifact.Artifact
	structure Structure

	running atomic.Bool
}

// Option configures a PromptTask.
type Option func(*PromptTask)

// WithRules sets bare task-scope rules. Exclusive with WithRulesets.
func WithRules(r ...rules.Rule) Option {
	return func(t *PromptTask) { t.rules = append(t.rules, r...) }
}

// WithRulesets sets task-scope rulesets. Exclusive with WithRules.
func WithRulesets(rs ...rules.Ruleset) Option {
	return func(t *PromptTask) { t.rulesets = append(t.rulesets, rs...) }
}

// WithPromptDriver overrides the structure's driver for this task.
func WithPromptDriver(d driver.PromptDriver) Option {
	return func(t *PromptTask) { t.driver = d }
}

// WithSystemTemplateGenerator replaces the default system template generator.
func WithSystemTemplateGenerator(g SystemTemplateGenerator) Option {
	return func(t *PromptTask) { t.generator = g }
}

// WithStructure attaches the task to a structure at construction.
func WithStructure(s Structure) Option {
	return func(t *PromptTask) { t.structure = s }
}

// WithID sets the task ID instead of a random UUID.
func WithID(id string) Option {
	return func(t *PromptTask) { t.id = id }
}

// WithLogger sets the task logger. nil means no logging.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(t *PromptTask) { t.logger = l }
}

// NewPromptTask creates a task for input. Declaring both rules and rulesets
// at the task scope, or attaching a structure that does, is a configuration error.
func NewPromptTask(input string, opts ...Option) (*PromptTask, error) {
	t := &PromptTask{
		input:     artifact.NewText(input),
		generator: DefaultSystemTemplate{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.id == "" {
		t.id = uuid.NewString()
	}
	if t.generator == nil {
		t.generator = DefaultSystemTemplate{}
	}
	t.logger = logger.OrNop(t.logger)

	if err := rules.ValidateScope(t.scope(), "task"); err != nil {
		return nil, err
	}
	if t.structure != nil {
		if err := validateStructure(t.structure); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func validateStructure(s Structure) error {
	return rules.ValidateScope(rules.Scope{Rules: s.Rules(), Rulesets: s.Rulesets()}, "structure")
}

// SetStructure attaches the task to s, validating s's rule scope.
func (t *PromptTask) SetStructure(s Structure) error {
	if s != nil {
		if err := validateStructure(s); err != nil {
			return err
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.structure = s
	return nil
}

func (t *PromptTask) Structure() Structure {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.structure
}

// ID returns the task identifier, a UUID unless set with WithID.
func (t *PromptTask) ID() string { return t.id }

// Rules returns a copy of the task-scope bare rules.
func (t *PromptTask) Rules() []rules.Rule {
	return append([]rules.Rule(nil), t.rules...)
}

// Rulesets returns a copy of the task-scope rulesets.
func (t *PromptTask) Rulesets() []rules.Ruleset {
	return append([]rules.Ruleset(nil), t.rulesets...)
}

// PromptDriver returns the task's own driver, which may be nil.
func (t *PromptTask) PromptDriver() driver.PromptDriver { return t.driver }

func (t *PromptTask) scope() rules.Scope {
	return rules.Scope{Rules: t.rules, Rulesets: t.rulesets}
}

// AllRulesets returns every ruleset in effect: the structure's first, then the task's.
func (t *PromptTask) AllRulesets() []rules.Ruleset {
	var structureScope rules.Scope
	if s := t.Structure(); s != nil {
		structureScope = rules.Scope{Rules: s.Rules(), Rulesets: s.Rulesets()}
	}
	return rules.Resolve(structureScope, t.scope())
}

// Input returns the current input as a text artifact.
func (t *PromptTask) Input() *artifact.TextArtifact {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.input
}

// SetInput replaces the input used by the next Run.
func (t *PromptTask) SetInput(input string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input = artifact.NewText(input)
}

// Output returns the artifact stored by the last run, or nil before the first run.
func (t *PromptTask) Output() artifact.Artifact {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.output
}

// ClearOutput forgets the previous output so the next prompt stack does not
// echo it back as an assistant message.
func (t *PromptTask) ClearOutput() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output = nil
}

// State reports where the task is in its lifecycle.
func (t *PromptTask) State() State {
	if t.running.Load() {
		return StateRunning
	}
	out := t.Output()
	switch {
	case out == nil:
		return StatePending
	case artifact.IsError(out):
		return StateFailed
	default:
		return StateCompleted
	}
}

// ActiveDriver returns the task's driver, else the structure's, else ErrNoDriver.
func (t *PromptTask) ActiveDriver() (driver.PromptDriver, error) {
	if t.driver != nil {
		return t.driver, nil
	}
	if s := t.Structure(); s != nil {
		if d := s.PromptDriver(); d != nil {
			return d, nil
		}
	}
	return nil, errors.WithHint(
		errors.Wrapf(errors.ErrNoDriver, "task %s", t.id),
		"pass task.WithPromptDriver or give the structure a default driver")
}

// PromptStack builds a fresh stack from the current task state:
// system message, memory contribution, user input, then the previous
// output as an assistant message if there is one.
func (t *PromptTask) PromptStack() (*promptstack.Stack, error) {
	t.mu.RLock()
	input, output := t.input, t.output
	t.mu.RUnlock()

	return t.buildStack(input.ToText(), output)
}

// PreviewPromptStack builds the stack a run would send for input with no
// previous output, leaving the task untouched.
func (t *PromptTask) PreviewPromptStack(input string) (*promptstack.Stack, error) {
	return t.buildStack(input, nil)
}

func (t *PromptTask) buildStack(input string, output artifact.Artifact) (*promptstack.Stack, error) {
	system, err := t.generator.GenerateSystemTemplate(t)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "failed to generate system template")
	}

	stack := promptstack.New()
	stack.AddSystemInput(system)

	if structure := t.Structure(); structure != nil {
		if mem := structure.Memory(); mem != nil {
			mem.AddToPromptStack(stack)
		}
	}

	stack.AddUserInput(input)

	if output != nil {
		stack.AddAssistantInput(output.ToText())
	}

	return stack, nil
}

// Run executes one cycle: resolve the driver, build the stack, call the
// driver and store its artifact as the output.
//
// Driver failures are stored and returned as an error artifact with a nil
// error. A non-nil error means the task could not be run at all (no driver,
// broken system template, already running) and leaves the output untouched.
func (t *PromptTask) Run(ctx context.Context) (artifact.Artifact, error) {
	if !t.running.CompareAndSwap(false, true) {
		return nil, errors.Wrapf(errors.ErrTaskBusy, "task %s", t.id)
	}
	defer t.running.Store(false)

	log := logger.LoggerFromContext(ctx, t.logger).With(logger.FieldTaskID, t.id)

	d, err := t.ActiveDriver()
	if err != nil {
		return nil, err
	}

	stack, err := t.PromptStack()
	if err != nil {
		return nil, err
	}

	log.Debugw("Running prompt task", logger.FieldMessages, stack.Len())
	start := time.Now()

	out, err := d.Run(ctx, stack)
	switch {
	case err != nil:
		out = artifact.NewError(err)
	case out == nil:
		out = artifact.NewErrorf("prompt driver returned no artifact")
	}

	t.mu.Lock()
	t.output = out
	t.mu.Unlock()

	if artifact.IsError(out) {
		log.Warnw("Prompt task failed",
			logger.FieldError, out.ToText(),
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	} else {
		log.Infow("Prompt task completed",
			logger.FieldArtifactKind, out.Kind(),
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	}

	return out, nil
}
