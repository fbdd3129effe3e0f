// Package memory keeps the conversation history of a structure and replays
// it into prompt stacks between the system message and the new user input.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/logger"
	"github.com/teranos/prompttask/promptstack"
)

// Run is one completed exchange.
type Run struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists runs for one conversation.
type Store interface {
	Load(ctx context.Context) ([]Run, error)
	Append(ctx context.Context, run Run) error
	Clear(ctx context.Context) error
	Close() error
}

// ConversationMemory is an ordered list of runs, optionally backed by a Store.
type ConversationMemory struct {
	mu      sync.RWMutex
	runs    []Run
	store   Store
	maxRuns int
	logger  *zap.SugaredLogger
	now     func() time.Time
}

// Option configures a ConversationMemory.
type Option func(*ConversationMemory)

// WithMaxRuns limits how many of the most recent runs are replayed into a
// prompt stack. Zero or less replays all of them. Stored history is not trimmed.
func WithMaxRuns(n int) Option {
	return func(m *ConversationMemory) { m.maxRuns = n }
}

// WithStore persists runs to s.
func WithStore(s Store) Option {
	return func(m *ConversationMemory) { m.store = s }
}

// WithLogger sets the logger used for store errors.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *ConversationMemory) { m.logger = l }
}

// New creates a memory. When a store is configured, use Open instead so the
// stored history is loaded.
func New(opts ...Option) *ConversationMemory {
	m := &ConversationMemory{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logger.OrNop(m.logger)
	return m
}

// Open creates a memory and loads existing runs from its store.
func Open(ctx context.Context, opts ...Option) (*ConversationMemory, error) {
	m := New(opts...)
	if m.store == nil {
		return m, nil
	}
	runs, err := m.store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load conversation memory")
	}
	m.runs = runs
	m.logger.Debugw("Loaded conversation memory", logger.FieldCount, len(runs))
	return m, nil
}

// AddRun records an exchange and persists it when a store is configured.
// The run is kept in memory only if persisting succeeds.
func (m *ConversationMemory) AddRun(ctx context.Context, input, output string) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Input:     input,
		Output:    output,
		CreatedAt: m.now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Append(ctx, run); err != nil {
			return Run{}, errors.Wrap(err, "failed to persist run")
		}
	}
	m.runs = append(m.runs, run)
	return run, nil
}

// Runs returns a copy of all runs, oldest first.
func (m *ConversationMemory) Runs() []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Run, len(m.runs))
	copy(out, m.runs)
	return out
}

// Clear forgets all runs, including stored ones.
func (m *ConversationMemory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			return errors.Wrap(err, "failed to clear stored runs")
		}
	}
	m.runs = nil
	return nil
}

// AddToPromptStack appends each replayed run as a user message followed by
// an assistant message, oldest first.
func (m *ConversationMemory) AddToPromptStack(stack *promptstack.Stack) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := m.runs
	if m.maxRuns > 0 && len(runs) > m.maxRuns {
		runs = runs[len(runs)-m.maxRuns:]
	}
	for _, run := range runs {
		stack.AddUserInput(run.Input)
		stack.AddAssistantInput(run.Output)
	}
}

// Close closes the underlying store, if any.
func (m *ConversationMemory) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}
