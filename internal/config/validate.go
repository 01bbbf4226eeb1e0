// validate.go provides validation for the pipsmoke configuration.
//
// Validation collects every finding instead of failing on the first,
// so "pipsmoke validate" can report the complete list in one pass.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmr-tortoise/pipsmoke/internal/model"
	"github.com/mmr-tortoise/pipsmoke/internal/schedule"
)

// ValidationError represents a specific validation failure in the
// configuration file.
type ValidationError struct {
	// Field is the configuration field path that failed validation
	// (e.g., "platforms[0].image").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// Validate performs conformance checks on a loaded configuration.
// It returns a list of validation errors (empty list = valid config).
//
// Checks performed:
//   - package: present and a plausible distribution name
//   - pythonVersions: non-empty, well-formed, no duplicates
//   - platforms: non-empty, labeled, unique labels, image templates
//     carry the "{version}" placeholder
//   - schedule: parses as a five-field cron expression
//   - timeout: parses as a positive Go duration
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError

	// Check 1: the package under test.
	if err := model.ValidatePackage(cfg.Package); err != nil {
		errs = append(errs, ValidationError{
			Field:   "package",
			Message: err.Error(),
		})
	}

	// Check 2: interpreter versions.
	if len(cfg.PythonVersions) == 0 {
		errs = append(errs, ValidationError{
			Field:   "pythonVersions",
			Message: "at least one interpreter version is required",
		})
	}
	seenVersions := make(map[string]bool, len(cfg.PythonVersions))
	for i, v := range cfg.PythonVersions {
		field := fmt.Sprintf("pythonVersions[%d]", i)
		if err := model.ValidateVersion(v); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
			continue
		}
		if seenVersions[v] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate interpreter version %q", v),
			})
		}
		seenVersions[v] = true
	}

	// Check 3: platforms.
	if len(cfg.Platforms) == 0 {
		errs = append(errs, ValidationError{
			Field:   "platforms",
			Message: "at least one platform is required",
		})
	}
	seenLabels := make(map[string]bool, len(cfg.Platforms))
	for i, p := range cfg.Platforms {
		field := fmt.Sprintf("platforms[%d]", i)
		if p.Label == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".label",
				Message: "platform label must not be empty",
			})
		} else if seenLabels[p.Label] {
			errs = append(errs, ValidationError{
				Field:   field + ".label",
				Message: fmt.Sprintf("duplicate platform label %q", p.Label),
			})
		}
		seenLabels[p.Label] = true

		// An image template without the placeholder would run every
		// interpreter version on the same image, silently voiding the
		// matrix. Literal images are rejected rather than warned about.
		if !strings.Contains(p.Image, versionPlaceholder) {
			errs = append(errs, ValidationError{
				Field:   field + ".image",
				Message: fmt.Sprintf("image template %q must contain the %q placeholder", p.Image, versionPlaceholder),
			})
		}
	}

	// Check 4: cron schedule.
	if _, err := schedule.Parse(cfg.Schedule); err != nil {
		errs = append(errs, ValidationError{
			Field:   "schedule",
			Message: err.Error(),
		})
	}

	// Check 5: per-check timeout.
	if d, err := time.ParseDuration(cfg.Timeout); err != nil {
		errs = append(errs, ValidationError{
			Field:   "timeout",
			Message: fmt.Sprintf("invalid duration %q: %v", cfg.Timeout, err),
		})
	} else if d <= 0 {
		errs = append(errs, ValidationError{
			Field:   "timeout",
			Message: fmt.Sprintf("timeout must be positive, got %q", cfg.Timeout),
		})
	}

	return errs
}
