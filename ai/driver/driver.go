// Package driver defines the execution backend a prompt task delegates to and
// selects a concrete backend from configuration.
package driver

import (
	"context"

	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/promptstack"
)

// PromptDriver runs one inference call over a prompt stack.
//
// A returned error is a delegated failure (network, API status, cancelled
// context); callers store it as an error artifact rather than aborting.
// Implementations may block and must honor ctx.
type PromptDriver interface {
	Run(ctx context.Context, stack *promptstack.Stack) (artifact.Artifact, error)
}

// Func adapts a function to PromptDriver.
type Func func(ctx context.Context, stack *promptstack.Stack) (artifact.Artifact, error)

func (f Func) Run(ctx context.Context, stack *promptstack.Stack) (artifact.Artifact, error) {
	return f(ctx, stack)
}

// Echo replies with a fixed text, or with the last user input when Reply is empty.
// It is used for dry runs and tests.
type Echo struct {
	Reply string
}

// NewEcho creates an Echo driver.
func NewEcho(reply string) *Echo {
	return &Echo{Reply: reply}
}

func (e *Echo) Run(ctx context.Context, stack *promptstack.Stack) (artifact.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.Reply != "" {
		return artifact.NewText(e.Reply), nil
	}
	if input, ok := stack.LastUserInput(); ok {
		return artifact.NewText(input), nil
	}
	return artifact.NewInfo("no user input to echo"), nil
}
