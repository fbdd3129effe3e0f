package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/prompttask/am"
	"github.com/teranos/prompttask/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Show and validate prompttask configuration",
	Long: `am - Show and validate prompttask configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (PROMPTTASK_* prefix, plus ANTHROPIC_API_KEY,
   OPENROUTER_API_KEY and OLLAMA_HOST)
3. Project config (./prompttask.toml, searched upward)
4. User config (~/.prompttask/prompttask.toml)
5. Default values

Examples:
  prompttask am show                    # Show current configuration
  prompttask am show --format json      # Show configuration in JSON format
  prompttask am validate                # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged prompttask configuration from all sources. API keys are redacted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		return writeConfig(cmd.OutOrStdout(), cfg, configFormat)
	},
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate that the current prompttask configuration is valid",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "configuration validation failed")
		}

		for _, path := range am.ConfigPaths() {
			if _, err := os.Stat(path); err == nil {
				pterm.Info.Printfln("Loaded %s", path)
			}
		}
		pterm.Success.Println("Configuration is valid")
		return nil
	},
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amValidateCmd)
}

// redacted returns a copy of cfg safe to print
func redacted(cfg *am.Config) am.Config {
	out := *cfg
	if out.OpenRouter.APIKey != "" {
		out.OpenRouter.APIKey = "<redacted>"
	}
	if out.Anthropic.APIKey != "" {
		out.Anthropic.APIKey = "<redacted>"
	}
	return out
}

func writeConfig(w io.Writer, cfg *am.Config, format string) error {
	safe := redacted(cfg)

	switch format {
	case "json":
		data, err := json.MarshalIndent(safe, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(w, string(data))

	case "yaml":
		data, err := yaml.Marshal(safe)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(w, "# prompttask configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(safe)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(w, "# prompttask configuration\n%s", string(data))

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}
