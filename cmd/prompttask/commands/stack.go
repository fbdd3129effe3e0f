package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var stackFlags agentFlags

// StackCmd prints the prompt stack a run would send
var StackCmd = &cobra.Command{
	Use:   "stack <input...>",
	Short: "Print the prompt stack for an input without calling a driver",
	Long: `Build the prompt stack a run would send for the given input and print it:
the system message rendered from all rulesets, remembered conversation, then
the user input. No driver is called, so no provider needs to be configured.

Examples:
  prompttask stack "hello"
  prompttask stack -r rules.yaml --memory sqlite "and then?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd.Context(), &stackFlags, false)
		if err != nil {
			return err
		}
		defer s.Close()

		stack, err := s.agent.PromptStack(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), stack.String())
		return nil
	},
}

func init() {
	stackFlags.register(StackCmd)
}
