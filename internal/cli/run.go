// Package cli — run.go implements the "pipsmoke run" command.
//
// The run command is the primary user-facing operation. It executes the
// whole check matrix once, immediately: expand the configured matrix,
// fan the entries out as concurrent Docker containers, collect results,
// and report.
//
// Orchestration steps:
//  1. Load and validate the configuration
//  2. Expand the (platform × interpreter version) matrix
//  3. Connect to Docker and verify the daemon responds
//  4. Fan out one check container per matrix entry
//  5. Output results (text or JSON)
//  6. Exit non-zero if any check failed
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pipsmoke/internal/config"
	"github.com/mmr-tortoise/pipsmoke/internal/docker"
	"github.com/mmr-tortoise/pipsmoke/internal/matrix"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
	"github.com/mmr-tortoise/pipsmoke/internal/runner"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	keep bool // --keep: preserve finished check containers
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the install check matrix once",
		Long: `Run every configured (platform × interpreter version) install check
immediately and report the results.

Each matrix entry runs in its own fresh container: the interpreter
version is printed, an isolated environment named after the entry is
created, and a single pip install of the configured package is
attempted. Entries are independent — one failure never stops the rest.

Examples:
  pipsmoke run
  pipsmoke run --keep
  pipsmoke run --json --config ci/pipsmoke.yaml`,

		Args: cobra.NoArgs,

		// RunE is used instead of Run so errors reach the Execute error
		// handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.keep, "keep", false,
		"Keep finished check containers for inspection (see \"pipsmoke list\")")

	return cmd
}

// runRun is the main orchestration function for the run command.
func runRun(ctx context.Context, flags *runFlags) error {
	// Step 1: Configuration.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Step 2: Execute one full matrix run.
	summary, err := executeMatrixRun(ctx, cfg, flags.keep)
	if err != nil {
		return err
	}

	// Step 3: Output results.
	printRunSummary(summary)

	// Step 4: Surface the run outcome as the process exit code.
	if !summary.Ok() {
		return model.NewCLIError(model.ExitCheckFailed,
			fmt.Sprintf("%d of %d checks failed", summary.FailedCount(), len(summary.Results)))
	}
	return nil
}

// executeMatrixRun performs one complete matrix run: expansion, Docker
// connection, concurrent fan-out. It is shared by "run" and by each
// scheduled firing of "watch".
//
// keepOverride forces container retention on top of the config value.
func executeMatrixRun(ctx context.Context, cfg *config.Config, keepOverride bool) (*model.RunSummary, error) {
	// Expand the matrix. With the default config this is the canonical
	// 4-entry matrix: one job per interpreter version on one platform.
	entries := matrix.Expand(cfg)
	VerboseLog("Expanded matrix: %d entries (%d platforms × %d versions)",
		len(entries), len(cfg.Platforms), len(cfg.PythonVersions))

	// Connect to Docker and make sure the daemon actually responds
	// before creating len(entries) containers.
	cli, err := docker.NewClient()
	if err != nil {
		return nil, err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}
	VerboseLog("Connected to Docker daemon")

	// Identify the run. The ID is stamped on every container label so
	// kept containers stay attributable to this run.
	runID := uuid.NewString()
	startedAt := time.Now().UTC()
	VerboseLog("Run %s started at %s", runID, startedAt.Format(time.RFC3339))

	checker := &runner.DockerChecker{
		Client:    cli,
		Cfg:       cfg,
		RunID:     runID,
		StartedAt: startedAt,
		Keep:      cfg.KeepContainers || keepOverride,
	}

	summary := runner.Run(ctx, checker, entries, cfg.Package, runID, startedAt)

	for _, result := range summary.Results {
		VerboseLog("Check %s/%s: %s (exit %d, %s)",
			result.Entry.Platform, result.Entry.PythonVersion,
			result.Status, result.ExitCode, result.Duration.Round(time.Second))
	}

	return summary, nil
}

// printRunSummary outputs the run results in text or JSON format.
func printRunSummary(summary *model.RunSummary) {
	if IsJSONOutput() {
		printRunSummaryJSON(summary)
	} else {
		printRunSummaryText(summary)
	}
}

// runResultJSON is the JSON output structure for a single check result.
type runResultJSON struct {
	Platform      string `json:"platform"`
	PythonVersion string `json:"pythonVersion"`
	Image         string `json:"image"`
	EnvName       string `json:"envName"`
	Status        string `json:"status"`
	ExitCode      int    `json:"exitCode"`
	DurationSec   int64  `json:"durationSeconds"`
	ContainerID   string `json:"containerId,omitempty"`
	LogTail       string `json:"logTail,omitempty"`
}

// printRunSummaryJSON outputs the run summary as structured JSON.
func printRunSummaryJSON(summary *model.RunSummary) {
	type resultJSON struct {
		RunID     string          `json:"runId"`
		Package   string          `json:"package"`
		StartedAt string          `json:"startedAt"`
		Passed    int             `json:"passed"`
		Failed    int             `json:"failed"`
		Ok        bool            `json:"ok"`
		Checks    []runResultJSON `json:"checks"`
	}

	result := resultJSON{
		RunID:     summary.RunID,
		Package:   summary.Package,
		StartedAt: summary.StartedAt.Format(time.RFC3339),
		Passed:    summary.PassedCount(),
		Failed:    summary.FailedCount(),
		Ok:        summary.Ok(),
		Checks:    make([]runResultJSON, 0, len(summary.Results)),
	}

	for _, r := range summary.Results {
		check := runResultJSON{
			Platform:      r.Entry.Platform,
			PythonVersion: r.Entry.PythonVersion,
			Image:         r.Entry.Image,
			EnvName:       r.Entry.EnvName,
			Status:        r.Status.String(),
			ExitCode:      r.ExitCode,
			DurationSec:   int64(r.Duration.Seconds()),
			ContainerID:   r.ContainerID,
		}
		// The log tail is only included for unsuccessful checks;
		// successful pip output is noise in a machine-read report.
		if r.Status != model.StatusPassed {
			check.LogTail = r.LogTail
		}
		result.Checks = append(result.Checks, check)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printRunSummaryText outputs the run summary as a human-readable table
// followed by a one-line verdict and, for unsuccessful checks, their
// captured output.
func printRunSummaryText(summary *model.RunSummary) {
	fmt.Printf("Install check for %q — run %s\n\n", summary.Package, summary.RunID)

	fmt.Printf("%-18s %-8s %-18s %-8s %-6s %s\n",
		"PLATFORM", "PYTHON", "ENV", "STATUS", "EXIT", "DURATION")
	for _, r := range summary.Results {
		fmt.Printf("%-18s %-8s %-18s %-8s %-6d %s\n",
			r.Entry.Platform,
			r.Entry.PythonVersion,
			r.Entry.EnvName,
			r.Status.String(),
			r.ExitCode,
			r.Duration.Round(time.Second),
		)
	}

	fmt.Println()
	fmt.Println(FormatVerdict(summary))

	// Show the captured tail of every unsuccessful check so the failure
	// is diagnosable without re-running with --keep.
	for _, r := range summary.Results {
		if r.Status == model.StatusPassed || r.LogTail == "" {
			continue
		}
		fmt.Printf("\n--- %s / %s (%s) ---\n%s\n",
			r.Entry.Platform, r.Entry.PythonVersion, r.Status, r.LogTail)
	}
}

// FormatVerdict renders the one-line run verdict, e.g. "4 passed" or
// "3 passed, 1 failed".
//
// Exported for testing.
func FormatVerdict(summary *model.RunSummary) string {
	if summary.FailedCount() == 0 {
		return fmt.Sprintf("%d passed", summary.PassedCount())
	}
	return fmt.Sprintf("%d passed, %d failed", summary.PassedCount(), summary.FailedCount())
}
