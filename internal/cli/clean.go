// Package cli — clean.go implements the "pipsmoke clean" command.
//
// The clean command removes check containers left behind by runs that
// kept them (keepContainers or --keep). Removal is forced: a container
// still running — for instance after an interrupted watch — is killed
// and removed in one step.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pipsmoke/internal/docker"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	runID string // --run: restrict cleanup to one run
}

// NewCleanCommand creates the "clean" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove kept check containers",
		Long: `Remove all check containers kept from previous runs. Only containers
created by pipsmoke (identified by their labels) are touched.

With --run, only the containers of that run are removed.

Examples:
  pipsmoke clean
  pipsmoke clean --run 1f0c8a52-7c3a-4a67-b7a2-1d2fb2f0a9eb`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.runID, "run", "", "Remove only containers of this run ID")

	return cmd
}

// runClean is the main logic function for the clean command.
func runClean(ctx context.Context, flags *cleanFlags) error {
	// Step 1: Connect to Docker.
	cli, err := docker.NewClient()
	if err != nil {
		return err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	defer func() { _ = cli.Close() }()

	VerboseLog("Connected to Docker daemon")

	// Step 2: Discover managed containers and optionally narrow to one run.
	containers, err := docker.ListCheckContainers(ctx, cli)
	if err != nil {
		return err
	}

	if flags.runID != "" {
		narrowed := make([]model.ContainerInfo, 0, len(containers))
		for _, c := range containers {
			if c.Labels[docker.LabelRunID] == flags.runID {
				narrowed = append(narrowed, c)
			}
		}
		if len(narrowed) == 0 {
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("no kept containers found for run %q", flags.runID))
		}
		containers = narrowed
	}

	VerboseLog("Removing %d container(s)", len(containers))

	// Step 3: Remove each container. A single failed removal aborts with
	// an error rather than reporting a partial clean as success.
	for _, c := range containers {
		VerboseLog("Removing container %s (%s)", c.ContainerName, shortID(c.ContainerID))
		if err := docker.RemoveCheckContainer(ctx, cli, c.ContainerID); err != nil {
			return err
		}
	}

	// Step 4: Output the result.
	printCleanResult(len(containers), flags.runID)
	return nil
}

// shortID abbreviates a container ID for log output, the way Docker's
// own CLI does.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// printCleanResult outputs the clean result in text or JSON format.
func printCleanResult(removed int, runID string) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"action":  "cleaned",
			"removed": removed,
		}
		if runID != "" {
			result["runId"] = runID
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if removed == 0 {
		fmt.Println("Nothing to clean.")
		return
	}
	if runID != "" {
		fmt.Printf("Removed %d container(s) from run %s\n", removed, runID)
	} else {
		fmt.Printf("Removed %d container(s)\n", removed)
	}
}
