package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/logger"
)

var (
	runFlags   agentFlags
	runJSON    bool
	runTimeout time.Duration
)

// RunCmd runs a single prompt through the agent
var RunCmd = &cobra.Command{
	Use:   "run <input...>",
	Short: "Run a single prompt",
	Long: `Run a single prompt task and print its output.

The input words are joined with spaces. Rules come from --rules or rules.file,
the driver from --provider or driver.provider. A failure reported by the
driver is printed as an error and exits non-zero.

Examples:
  prompttask run "What is the capital of France?"
  prompttask run -r persona.toml -p anthropic "Introduce yourself"
  prompttask run --json -p echo hello`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runFlags.register(RunCmd)
	RunCmd.Flags().BoolVar(&runJSON, "json", false, "Output the artifact as JSON")
	RunCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "Abort the driver call after this long")
}

// artifactOutput is the --json shape of an artifact
type artifactOutput struct {
	TaskID string        `json:"task_id"`
	Kind   artifact.Kind `json:"kind"`
	Value  string        `json:"value"`
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	s, err := newSession(ctx, &runFlags, true)
	if err != nil {
		return err
	}
	defer s.Close()

	taskID := s.agent.Task().ID()
	ctx = logger.WithTaskID(ctx, taskID)

	out, err := s.agent.Run(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if runJSON {
		data, err := json.MarshalIndent(artifactOutput{TaskID: taskID, Kind: out.Kind(), Value: out.ToText()}, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal artifact")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else if !artifact.IsError(out) {
		fmt.Fprintln(cmd.OutOrStdout(), out.ToText())
	}

	if artifact.IsError(out) {
		if !runJSON {
			pterm.Error.Println(out.ToText())
		}
		return errors.Newf("prompt task %s failed", taskID)
	}
	return nil
}
