// Vyconsole edits the configuration of VyOS routers through their
// management API.
//
// Each command loads one category of entities (ethernet interfaces, NAT
// rules, firewall rules, policy lists, DHCP subnets, ...), fills the
// entity's form from a file or --set assignments, and submits only the
// operations that actually change something.
//
// Usage:
//
//	vyconsole [command] [flags]
//
// See 'vyconsole --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vyconsole/vyconsole/internal/logging"
	"github.com/vyconsole/vyconsole/internal/session"
	"github.com/vyconsole/vyconsole/internal/version"
	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

// Global flags
var (
	profileName  string
	targetURL    string
	timeout      time.Duration
	logLevel     string
	outputFormat string
	auditLogPath string
	configPath   string
)

var rootCmd = &cobra.Command{
	Use:   "vyconsole",
	Short: "VyOS configuration console",
	Long: `A console for editing VyOS router configuration through the
management API.

Entities are edited as flat forms. Only fields that differ from the
router's current state are submitted, and fields the router does not
support are never sent.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&profileName, "profile", "p", "", "Profile to use (default: current profile)")
	pf.StringVar(&targetURL, "url", "", "API base URL (overrides the profile)")
	pf.DurationVar(&timeout, "timeout", 0, "Request timeout (default: profile timeout or 30s)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $"+logging.LogLevelEnvVar+")")
	pf.StringVar(&outputFormat, "format", "", "Output format: text, json, yaml (default: preference or text)")
	pf.StringVar(&auditLogPath, "audit-log", "", "Change history file (default: history.jsonl in the config directory)")
	pf.StringVar(&configPath, "config", "", "Configuration file (default: config.yaml in the config directory)")
	_ = pf.MarkHidden("config")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		f, err := format(reg)
		if err != nil {
			return err
		}
		if f != formatText {
			return encode(cmd.OutOrStdout(), f, version.Get())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "vyconsole %s\n", version.Full())
		return nil
	},
}

// printError reports err on stderr. Form errors list every field; API
// errors add a troubleshooting hint.
func printError(err error) {
	var formErr *session.FormError
	if errors.As(err, &formErr) {
		fmt.Fprintf(os.Stderr, "Error: %s %s has invalid fields:\n", formErr.Category, formErr.Key)
		for _, fe := range formErr.Errors {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.FieldPath, fe.Message)
		}
		return
	}

	var apiErr *vyosapi.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s\n", err, vyosapi.GetTroubleshootingHint(apiErr))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
