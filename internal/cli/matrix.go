// Package cli — matrix.go implements the "pipsmoke matrix" command.
//
// The matrix command prints the expanded check matrix without running
// anything: one row per (platform, interpreter version) pair with the
// resolved image and derived environment name. Useful for verifying a
// config change before the next scheduled run.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pipsmoke/internal/matrix"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// NewMatrixCommand creates the "matrix" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewMatrixCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "matrix",
		Short: "Print the expanded check matrix without running it",
		Long: `Print every (platform × interpreter version) job the configuration
expands to, with each job's resolved container image and derived
environment name.

Examples:
  pipsmoke matrix
  pipsmoke matrix --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix()
		},
	}
}

// runMatrix loads the config, expands the matrix, and prints it.
func runMatrix() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries := matrix.Expand(cfg)
	VerboseLog("Expanded %d matrix entries for package %q", len(entries), cfg.Package)

	if IsJSONOutput() {
		printMatrixJSON(cfg.Package, entries)
	} else {
		printMatrixText(cfg.Package, entries)
	}
	return nil
}

// printMatrixJSON outputs the matrix as structured JSON. The entries
// reuse MatrixEntry's own JSON shape.
func printMatrixJSON(pkg string, entries []model.MatrixEntry) {
	type resultJSON struct {
		Package string              `json:"package"`
		Jobs    []model.MatrixEntry `json:"jobs"`
	}

	result := resultJSON{
		Package: pkg,
		// Empty slice instead of nil so JSON output shows [] rather
		// than null for an empty matrix.
		Jobs: make([]model.MatrixEntry, 0, len(entries)),
	}
	result.Jobs = append(result.Jobs, entries...)

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printMatrixText outputs the matrix as an aligned text table.
func printMatrixText(pkg string, entries []model.MatrixEntry) {
	fmt.Printf("Check matrix for %q: %d job(s)\n\n", pkg, len(entries))

	fmt.Printf("%-18s %-8s %-28s %s\n", "PLATFORM", "PYTHON", "IMAGE", "ENV")
	for _, e := range entries {
		fmt.Printf("%-18s %-8s %-28s %s\n",
			e.Platform, e.PythonVersion, e.Image, e.EnvName)
	}
}
