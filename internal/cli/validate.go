// Package cli — validate.go implements the "pipsmoke validate" command.
//
// The validate command loads the configuration, runs the full set of
// conformance checks, and reports every finding. On a valid config it
// also previews the next scheduled fire times so a schedule typo that
// still parses (say, day 2 instead of day 1) is visible at a glance.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pipsmoke/internal/config"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
	"github.com/mmr-tortoise/pipsmoke/internal/schedule"
)

// nextFirePreviewCount is how many upcoming fire times validate shows.
const nextFirePreviewCount = 3

// NewValidateCommand creates the "validate" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Load the configuration file, apply defaults, and run all conformance
checks. Every finding is reported, not just the first. On success the
next scheduled fire times are previewed.

Examples:
  pipsmoke validate
  pipsmoke validate --config ci/pipsmoke.yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate()
		},
	}
}

// runValidate loads the config without the usual fail-fast validation
// wrapper, so every finding can be printed individually.
func runValidate() error {
	path := configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
		}
		path, err = config.FindConfig(cwd)
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	findings := config.Validate(cfg)
	printValidateResult(path, cfg, findings)

	if len(findings) > 0 {
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("%d validation finding(s) in %s", len(findings), path))
	}
	return nil
}

// printValidateResult outputs the findings (or the all-clear with a
// schedule preview) in text or JSON format.
func printValidateResult(path string, cfg *config.Config, findings []config.ValidationError) {
	if IsJSONOutput() {
		printValidateResultJSON(path, cfg, findings)
	} else {
		printValidateResultText(path, cfg, findings)
	}
}

// printValidateResultJSON outputs the validation result as structured JSON.
func printValidateResultJSON(path string, cfg *config.Config, findings []config.ValidationError) {
	type findingJSON struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	type resultJSON struct {
		Config    string        `json:"config"`
		Valid     bool          `json:"valid"`
		Findings  []findingJSON `json:"findings"`
		NextFires []string      `json:"nextFires,omitempty"`
	}

	result := resultJSON{
		Config:   path,
		Valid:    len(findings) == 0,
		Findings: make([]findingJSON, 0, len(findings)),
	}
	for _, f := range findings {
		result.Findings = append(result.Findings, findingJSON{Field: f.Field, Message: f.Message})
	}
	for _, fire := range nextFires(cfg) {
		result.NextFires = append(result.NextFires, fire.Format(time.RFC3339))
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printValidateResultText outputs the validation result as readable text.
func printValidateResultText(path string, cfg *config.Config, findings []config.ValidationError) {
	if len(findings) == 0 {
		fmt.Printf("%s is valid\n", path)
		fires := nextFires(cfg)
		if len(fires) > 0 {
			fmt.Printf("\nSchedule %q next fires:\n", cfg.Schedule)
			for _, fire := range fires {
				fmt.Printf("  %s\n", fire.Format(time.RFC3339))
			}
		}
		return
	}

	fmt.Printf("%s has %d finding(s):\n", path, len(findings))
	for _, f := range findings {
		fmt.Printf("  %-24s %s\n", f.Field, f.Message)
	}
}

// nextFires previews the schedule's upcoming fire times. Returns nil when
// the schedule itself is one of the findings.
func nextFires(cfg *config.Config) []time.Time {
	sched, err := schedule.Parse(cfg.Schedule)
	if err != nil {
		return nil
	}
	return sched.NextN(time.Now(), nextFirePreviewCount)
}
