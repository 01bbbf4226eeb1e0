// Package cli — list.go implements the "pipsmoke list" command.
//
// The list command displays check containers kept from previous runs by
// querying Docker for containers with the "pipsmoke.managed-by=pipsmoke"
// label. Containers are grouped by run ID and presented as a text table
// or JSON, depending on the --json flag.
//
// Only kept containers appear here: a default run removes its containers
// on completion, so list output is empty unless keepContainers (or
// --keep) was in effect.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pipsmoke/internal/docker"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List kept check containers grouped by run",
		Long: `List check containers preserved from previous runs, grouped by the
run that created them.

Each group shows the run ID, the package under test, when the run
started, and one line per container with its interpreter version and
state.

Examples:
  pipsmoke list
  pipsmoke list --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context())
		},
	}
}

// keptRun is a reconstructed view of one past run's kept containers.
type keptRun struct {
	runID      string
	meta       *model.CheckMeta
	containers []model.ContainerInfo
}

// runList is the main logic function for the list command.
func runList(ctx context.Context) error {
	// Step 1: Connect to Docker.
	cli, err := docker.NewClient()
	if err != nil {
		return err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	defer func() { _ = cli.Close() }()

	VerboseLog("Connected to Docker daemon")

	// Step 2: Discover managed containers and group them by run.
	containers, err := docker.ListCheckContainers(ctx, cli)
	if err != nil {
		return err
	}
	VerboseLog("Found %d kept check containers", len(containers))

	groups := docker.GroupByRun(containers)

	// Step 3: Rebuild per-run metadata from the first container's labels.
	// All containers of one run share the package/run/started-at labels.
	runs := make([]keptRun, 0, len(groups))
	for runID, group := range groups {
		meta, err := docker.ParseLabels(group[0].Labels)
		if err != nil {
			// One mislabeled run must not prevent listing the others.
			VerboseLog("Warning: skipping run %q: %v", runID, err)
			continue
		}
		// Stable container order within the run: by interpreter version
		// label, compared numerically so "3.9" precedes "3.10".
		sort.Slice(group, func(i, j int) bool {
			return versionLess(
				group[i].Labels[docker.LabelPythonVersion],
				group[j].Labels[docker.LabelPythonVersion],
			)
		})
		runs = append(runs, keptRun{runID: runID, meta: meta, containers: group})
	}

	// Step 4: Sort runs newest-first.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].meta.StartedAt.After(runs[j].meta.StartedAt)
	})

	// Step 5: Output.
	printListResult(runs)
	return nil
}

// versionLess compares two dot-separated version strings component by
// component as integers, so "3.9" sorts before "3.10". Non-numeric
// components fall back to plain string comparison.
func versionLess(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			return a < b
		}
		if an != bn {
			return an < bn
		}
	}
	return len(as) < len(bs)
}

// printListResult outputs the kept runs in text or JSON format.
func printListResult(runs []keptRun) {
	if IsJSONOutput() {
		printListResultJSON(runs)
	} else {
		printListResultText(runs)
	}
}

// listContainerJSON is the JSON output structure for one kept container.
type listContainerJSON struct {
	ContainerID   string `json:"containerId"`
	ContainerName string `json:"containerName"`
	PythonVersion string `json:"pythonVersion"`
	Platform      string `json:"platform"`
	State         string `json:"state"`
}

// printListResultJSON outputs the kept runs as structured JSON.
// The top-level key is "runs" containing an array of run objects.
func printListResultJSON(runs []keptRun) {
	type runJSON struct {
		RunID      string              `json:"runId"`
		Package    string              `json:"package"`
		StartedAt  string              `json:"startedAt"`
		Containers []listContainerJSON `json:"containers"`
	}
	type resultJSON struct {
		Runs []runJSON `json:"runs"`
	}

	result := resultJSON{
		// Empty slice instead of nil so JSON output shows [] rather
		// than null when nothing is kept.
		Runs: make([]runJSON, 0, len(runs)),
	}

	for _, run := range runs {
		entry := runJSON{
			RunID:      run.runID,
			Package:    run.meta.Package,
			StartedAt:  run.meta.StartedAt.Format(time.RFC3339),
			Containers: make([]listContainerJSON, 0, len(run.containers)),
		}
		for _, c := range run.containers {
			entry.Containers = append(entry.Containers, listContainerJSON{
				ContainerID:   c.ContainerID,
				ContainerName: c.ContainerName,
				PythonVersion: c.Labels[docker.LabelPythonVersion],
				Platform:      c.Labels[docker.LabelPlatform],
				State:         c.State,
			})
		}
		result.Runs = append(result.Runs, entry)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printListResultText outputs the kept runs as human-readable text,
// one block per run.
func printListResultText(runs []keptRun) {
	if len(runs) == 0 {
		fmt.Println("No kept check containers found.")
		return
	}

	for i, run := range runs {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Run %s — %q, started %s\n",
			run.runID, run.meta.Package, run.meta.StartedAt.Format(time.RFC3339))

		fmt.Printf("  %-18s %-8s %-10s %s\n", "PLATFORM", "PYTHON", "STATE", "CONTAINER")
		for _, c := range run.containers {
			fmt.Printf("  %-18s %-8s %-10s %s\n",
				c.Labels[docker.LabelPlatform],
				c.Labels[docker.LabelPythonVersion],
				c.State,
				c.ContainerName,
			)
		}
	}
}
