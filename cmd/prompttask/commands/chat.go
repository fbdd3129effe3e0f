package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/prompttask/artifact"
	"github.com/teranos/prompttask/errors"
	"github.com/teranos/prompttask/rules"
	"github.com/teranos/prompttask/structure"
)

var chatFlags agentFlags

// ChatCmd starts an interactive conversation
var ChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation with memory",
	Long: `Start an interactive conversation. Each line is one run of the prompt task;
earlier exchanges reach the model through conversation memory.

Commands inside the chat:
  /rules <file>    Replace the agent rules with the contents of a rules file
  /clear           Forget the conversation so far
  /stack [input]   Show the prompt stack the next input would produce
  /exit            Leave (Ctrl-D also works)

Examples:
  prompttask chat
  prompttask chat --memory bolt -r persona.yaml --watch`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatFlags.register(ChatCmd)
	ChatCmd.Flags().BoolVarP(&chatFlags.watch, "watch", "w", false, "Reload the rules file when it changes")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s, err := newSession(ctx, &chatFlags, true)
	if err != nil {
		return err
	}
	defer s.Close()

	pterm.DefaultHeader.WithFullWidth().Println("prompttask chat")
	pterm.Info.Printfln("Driver: %s   Memory: %s   Type /exit to leave", s.cfg.Driver.Provider, s.cfg.Memory.Backend)

	return newREPL(s.agent, cmd.InOrStdin(), cmd.OutOrStdout()).loop(ctx)
}

// repl reads lines and either runs them through the agent or handles a
// slash command
type repl struct {
	agent *structure.Agent
	in    *bufio.Scanner
	out   io.Writer
}

func newREPL(agent *structure.Agent, in io.Reader, out io.Writer) *repl {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &repl{agent: agent, in: scanner, out: out}
}

func (r *repl) loop(ctx context.Context) error {
	for {
		fmt.Fprint(r.out, "> ")
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}

		quit, err := r.handle(ctx, r.in.Text())
		if err != nil {
			PrintError(err)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// handle processes one input line. It reports whether the session should end.
func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if strings.HasPrefix(line, "/") {
		return r.command(ctx, line)
	}

	out, err := r.agent.Run(ctx, line)
	if err != nil {
		return false, err
	}
	if artifact.IsError(out) {
		pterm.Error.Println(out.ToText())
		return false, nil
	}
	fmt.Fprintln(r.out, out.ToText())
	return false, nil
}

func (r *repl) command(ctx context.Context, line string) (bool, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return false, errors.Wrap(err, "failed to parse command")
	}

	switch words[0] {
	case "/exit", "/quit":
		return true, nil

	case "/rules":
		if len(words) != 2 {
			return false, errors.New("usage: /rules <file>")
		}
		scope, err := rules.LoadFile(words[1])
		if err != nil {
			return false, err
		}
		if err := r.agent.SetScope(scope); err != nil {
			return false, err
		}
		fmt.Fprintf(r.out, "Loaded %d rulesets and %d rules from %s\n", len(scope.Rulesets), len(scope.Rules), words[1])
		return false, nil

	case "/clear":
		mem := r.agent.ConversationMemory()
		if mem == nil {
			fmt.Fprintln(r.out, "No conversation memory configured")
			return false, nil
		}
		if err := mem.Clear(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, "Conversation cleared")
		return false, nil

	case "/stack":
		stack, err := r.agent.PromptStack(strings.Join(words[1:], " "))
		if err != nil {
			return false, err
		}
		fmt.Fprint(r.out, stack.String())
		return false, nil
	}

	return false, errors.Newf("unknown command %s (try /rules, /clear, /stack, /exit)", words[0])
}
