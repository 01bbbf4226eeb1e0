// Package cli — initcmd.go implements the "pipsmoke init" command.
//
// The init command writes a starter pipsmoke.yaml into the working
// directory: the default monthly schedule, the default four-version
// interpreter matrix, and the package name passed as the argument.
// It refuses to overwrite an existing config.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pipsmoke/internal/config"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// initFileName is the file written by the init command. Init always
// writes YAML; users who prefer JSONC can convert by hand.
const initFileName = "pipsmoke.yaml"

// NewInitCommand creates the "init" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <package>",
		Short: "Write a starter pipsmoke.yaml for the given package",
		Long: `Write a pipsmoke.yaml into the working directory with the default
monthly schedule and interpreter matrix, ready to run:

  pipsmoke init causalml
  pipsmoke run

The command refuses to overwrite an existing config file.`,

		// Exactly one positional argument: the package name.
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0])
		},
	}
}

// runInit validates the package name, renders the default config, and
// writes it unless a config already exists.
func runInit(pkg string) error {
	if err := model.ValidatePackage(pkg); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid package name", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	// Refuse to clobber any existing config, not just pipsmoke.yaml —
	// writing a second config in another format would silently shadow
	// or be shadowed by the existing one.
	if existing, err := config.FindConfig(cwd); err == nil {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("config already exists: %s", existing))
	}

	cfg := config.Default()
	cfg.Package = pkg

	data, err := cfg.Marshal()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to render config", err)
	}

	path := filepath.Join(cwd, initFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to write %s", path), err)
	}

	if IsJSONOutput() {
		fmt.Println(renderInitJSON(path, pkg))
	} else {
		fmt.Printf("Created %s for package %q\n", path, pkg)
		fmt.Println("Run \"pipsmoke validate\" to review it, \"pipsmoke run\" to check now.")
	}
	return nil
}

// renderInitJSON renders the init success output. Marshalling handles
// JSON string escaping for arbitrary file paths.
func renderInitJSON(path, pkg string) string {
	result := map[string]string{
		"created": path,
		"package": pkg,
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	return string(data)
}
