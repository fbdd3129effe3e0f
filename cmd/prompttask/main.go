package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/prompttask/am"
	"github.com/teranos/prompttask/cmd/prompttask/commands"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/logger"
)

var rootCmd = &cobra.Command{
	Use:   "prompttask",
	Short: "prompttask - run rule-governed prompts against an LLM driver",
	Long: `prompttask - run rule-governed prompts against an LLM driver.

A prompt task composes the rules of its agent and its own rules into a
system message, replays conversation memory, and sends the result to a
prompt driver (local inference, Anthropic, OpenRouter or echo).

Available commands:
  run     - Run a single prompt
  chat    - Interactive conversation with memory
  stack   - Print the prompt stack for an input without calling a driver
  am      - Show and validate configuration ("I am")
  version - Show version information

Examples:
  prompttask run "Summarize the release notes"
  prompttask run --rules rules.toml --provider echo "hello"
  prompttask chat --memory sqlite
  prompttask stack --rules rules.yaml "hello"
  prompttask am show --format yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		level := logger.VerbosityToLevel(verbosity)
		if verbosity == 0 {
			// Config level applies only when no -v flag was given
			if cfg, err := am.Load(); err == nil {
				level = logger.ParseLevel(cfg.Log.Level)
				jsonLogs = jsonLogs || cfg.Log.JSON
			}
		}
		if err := logger.InitializeWithLevel(jsonLogs, level); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON on stderr")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.ChatCmd)
	rootCmd.AddCommand(commands.StackCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		commands.PrintError(err)
		os.Exit(1)
	}
}
