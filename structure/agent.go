// Package structure provides Agent, a single-task container that owns the
// structure-scope rules, a default prompt driver and conversation memory.
package structure

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/prompttask/ai/driver"
	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/logger"
	"github.com/teranos/prompttask/memory"
	"github.com/teranos/prompttask/promptstack"
	"github.com/teranos/prompttask/rules"
	"github.com/teranos/prompttask/task"
)

// Agent runs one prompt task per input and records each exchange in memory.
type Agent struct {
	mu    sync.RWMutex
	scope rules.Scope

	driver driver.PromptDriver
	memory *memory.ConversationMemory
	task   *task.PromptTask
	logger *zap.SugaredLogger

	// serializes Run so input, output and memory stay consistent
	runMu sync.Mutex
}

// Option configures an Agent
type Option func(*Agent)

// WithRules sets bare structure-scope rules. Exclusive with WithRulesets.
func WithRules(r ...rules.Rule) Option {
	return func(a *Agent) { a.scope.Rules = append(a.scope.Rules, r...) }
}

// WithRulesets sets structure-scope rulesets. Exclusive with WithRules.
func WithRulesets(rs ...rules.Ruleset) Option {
	return func(a *Agent) { a.scope.Rulesets = append(a.scope.Rulesets, rs...) }
}

// WithScope sets the whole structure scope, as loaded from a rules file.
func WithScope(s rules.Scope) Option {
	return func(a *Agent) { a.scope = s }
}

// WithMemory attaches conversation memory. A nil memory means none.
func WithMemory(m *memory.ConversationMemory) Option {
	return func(a *Agent) { a.memory = m }
}

// WithPromptDriver sets the default driver for the agent's task
func WithPromptDriver(d driver.PromptDriver) Option {
	return func(a *Agent) { a.driver = d }
}

// WithLogger sets the agent logger. It is also passed to the default task.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithTask uses t instead of a default prompt task. t is attached to the agent.
func WithTask(t *task.PromptTask) Option {
	return func(a *Agent) { a.task = t }
}

// NewAgent creates an agent. Declaring both rules and rulesets at the agent
// scope is a configuration error.
func NewAgent(opts ...Option) (*Agent, error) {
	a := &Agent{}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrNop(a.logger).With(logger.FieldComponent, "agent")

	if err := rules.ValidateScope(a.scope, "structure"); err != nil {
		return nil, err
	}

	if a.task == nil {
		t, err := task.NewPromptTask("", task.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		a.task = t
	}
	if err := a.task.SetStructure(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Rules returns a copy of the structure-scope bare rules
func (a *Agent) Rules() []rules.Rule {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]rules.Rule(nil), a.scope.Rules...)
}

// Rulesets returns a copy of the structure-scope rulesets
func (a *Agent) Rulesets() []rules.Ruleset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]rules.Ruleset(nil), a.scope.Rulesets...)
}

// SetScope replaces the structure scope after validating it. Used when a
// rules file is reloaded.
func (a *Agent) SetScope(s rules.Scope) error {
	if err := rules.ValidateScope(s, "structure"); err != nil {
		return err
	}
	a.mu.Lock()
	a.scope = s
	a.mu.Unlock()

	a.logger.Infow("Structure rules updated",
		logger.FieldRulesets, len(s.Rulesets),
		logger.FieldCount, len(s.Rules))
	return nil
}

// Memory returns the conversation memory, or nil when the agent has none.
func (a *Agent) Memory() task.Memory {
	if a.memory == nil {
		return nil
	}
	return a.memory
}

// ConversationMemory returns the concrete memory, which may be nil
func (a *Agent) ConversationMemory() *memory.ConversationMemory {
	return a.memory
}

// PromptDriver returns the agent's default driver, which may be nil
func (a *Agent) PromptDriver() driver.PromptDriver { return a.driver }

// Task returns the agent's prompt task
func (a *Agent) Task() *task.PromptTask { return a.task }

// PromptStack shows the stack the next Run with input would send, without
// calling a driver or changing the task.
func (a *Agent) PromptStack(input string) (*promptstack.Stack, error) {
	return a.task.PreviewPromptStack(input)
}

// Run feeds input to the task and returns its output.
//
// The previous output is cleared first, so earlier exchanges reach the driver
// only through memory. Info and error artifacts are returned but not remembered.
func (a *Agent) Run(ctx context.Context, input string) (artifact.Artifact, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	a.task.SetInput(input)
	a.task.ClearOutput()

	out, err := a.task.Run(ctx)
	if err != nil {
		return nil, err
	}

	// Only real model replies are remembered; info notices and errors would
	// replay as assistant turns the model never produced.
	if a.memory != nil && out.Kind() == artifact.KindText {
		if _, err := a.memory.AddRun(ctx, input, out.ToText()); err != nil {
			return out, errors.Wrap(err, "failed to record run in memory")
		}
	}
	return out, nil
}

// Close releases the memory store, if any
func (a *Agent) Close() error {
	if a.memory == nil {
		return nil
	}
	return a.memory.Close()
}
