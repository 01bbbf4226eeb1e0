// Package cli implements the cobra-based CLI commands for pipsmoke.
//
// Each subcommand (run, matrix, watch, validate, list, clean, init) is
// defined in its own file within this package. This file defines the root
// command that serves as the parent for all subcommands and handles
// global flags.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pipsmoke/internal/config"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON format for machine
	// consumption. When false (default), output uses human-readable text.
	jsonOutput bool

	// verbose enables detailed logging output for debugging.
	// When true, additional information about operations is printed to stderr.
	verbose bool

	// configPath selects the configuration file. When empty, the known
	// file names are probed in the working directory.
	configPath string
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text and global flags. Actual functionality is provided by
// subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pipsmoke",
		Short: "Scheduled install smoke tests for published PyPI packages",
		Long: `pipsmoke verifies that a published package installs cleanly from its
package index across a matrix of interpreter versions. Every check runs
in a fresh, isolated Docker container, and the whole matrix can fire on
a cron schedule (the default is monthly, like a "does the release still
install" canary).

A check passes when pip reports success for the configured package on
the entry's interpreter; there are no retries and no test execution
beyond printing the interpreter version.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// Error output is handled in Execute for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Errors are formatted ourselves (text or JSON based on --json).
		SilenceErrors: true,

		// Version is displayed when the --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// PersistentFlags are inherited by all subcommands — the cobra
	// mechanism for global flags.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file path (default: pipsmoke.yaml/.yml/.json/.jsonc in the working directory)")

	// Register subcommands. Each is defined in its own file and returns
	// a *cobra.Command.
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewMatrixCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewCleanCommand())
	rootCmd.AddCommand(NewInitCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		// A type assertion suffices for this single-level check;
		// CLIErrors are created at the outermost layer.
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
// This is used throughout the CLI for debug/trace output that helps
// users understand what operations are being performed.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig resolves the configuration for a command: the explicit
// --config path when given, otherwise the first known file name in the
// working directory. The loaded config is validated; any finding aborts
// with a config error listing all of them.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
		}
		path, err = config.FindConfig(cwd)
		if err != nil {
			return nil, err // FindConfig already returns a CLIError
		}
	}
	VerboseLog("Loading config from %s", path)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err // Load already returns a CLIError
	}

	if findings := config.Validate(cfg); len(findings) > 0 {
		// Surface every finding, not just the first, so one validate
		// cycle fixes the whole file.
		msg := fmt.Sprintf("invalid config %s:", path)
		for _, f := range findings {
			msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
		}
		return nil, model.NewCLIError(model.ExitConfigError, msg)
	}

	return cfg, nil
}
