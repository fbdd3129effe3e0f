// Package commands implements the prompttask CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/prompttask/ai/driver"
	"github.com/teranos/prompttask/am"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/logger"
	"github.com/teranos/prompttask/memory"
	"github.com/teranos/prompttask/rules"
	"github.com/teranos/prompttask/structure"
)

// agentFlags are shared by run, chat and stack
type agentFlags struct {
	provider string
	rules    string
	memory   string
	watch    bool
}

func (f *agentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "Prompt driver: auto, local, anthropic, openrouter, echo (overrides driver.provider)")
	cmd.Flags().StringVarP(&f.rules, "rules", "r", "", "Rules file (.toml, .yaml) applied at the agent scope (overrides rules.file)")
	cmd.Flags().StringVar(&f.memory, "memory", "", "Memory backend: none, memory, sqlite, bolt (overrides memory.backend)")
}

// apply overlays command line flags on cfg
func (f *agentFlags) apply(cfg *am.Config) {
	if f.provider != "" {
		cfg.Driver.Provider = f.provider
	}
	if f.rules != "" {
		cfg.Rules.File = f.rules
	}
	if f.memory != "" {
		cfg.Memory.Backend = f.memory
	}
	if f.watch {
		cfg.Rules.Watch = true
	}
}

// session is a configured agent plus whatever it needs released on exit
type session struct {
	cfg     *am.Config
	agent   *structure.Agent
	watcher *rules.Watcher
}

func (s *session) Close() {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			logger.Warnw("Failed to stop rules watcher", logger.FieldError, err)
		}
	}
	if err := s.agent.Close(); err != nil {
		logger.Warnw("Failed to close memory", logger.FieldError, err)
	}
}

// newSession loads configuration and builds an agent. Without requireDriver,
// a missing driver is tolerated so the prompt stack can still be inspected.
func newSession(ctx context.Context, flags *agentFlags, requireDriver bool) (*session, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	local := *cfg
	flags.apply(&local)
	if err := local.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	log := logger.Logger

	d, err := driver.New(&local, log)
	if err != nil {
		if requireDriver {
			return nil, err
		}
		log.Debugw("No prompt driver configured", logger.FieldError, err)
		d = nil
	}

	var scope rules.Scope
	if local.Rules.File != "" {
		scope, err = rules.LoadFile(local.Rules.File)
		if err != nil {
			return nil, err
		}
		log.Debugw("Loaded rules file",
			logger.FieldFile, local.Rules.File,
			logger.FieldRulesets, len(scope.Rulesets),
			logger.FieldCount, len(scope.Rules))
	}

	mem, err := memory.FromConfig(ctx, local.Memory, log)
	if err != nil {
		return nil, err
	}

	agent, err := structure.NewAgent(
		structure.WithScope(scope),
		structure.WithPromptDriver(d),
		structure.WithMemory(mem),
		structure.WithLogger(log),
	)
	if err != nil {
		if mem != nil {
			mem.Close()
		}
		return nil, err
	}

	s := &session{cfg: &local, agent: agent}

	if local.Rules.Watch && local.Rules.File != "" {
		w, err := rules.NewWatcher(local.Rules.File, log)
		if err != nil {
			s.Close()
			return nil, err
		}
		w.OnReload(agent.SetScope)
		w.Start()
		s.watcher = w
	}

	return s, nil
}

// PrintError prints err with any hints attached to it
func PrintError(err error) {
	pterm.Error.Println(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		pterm.Info.Println(hint)
	}
	if errors.IsConfigurationError(err) {
		fmt.Fprintln(os.Stderr, "Run 'prompttask am validate' to check your configuration.")
	}
}
