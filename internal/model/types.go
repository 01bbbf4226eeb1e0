// Package model defines the domain types for the pipsmoke CLI.
//
// All entities in this package represent the core data structures of an
// install-check run: the expanded matrix, per-entry results, and the run
// summary. These types are used throughout the application for passing
// data between components.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CheckStatus represents the outcome of a single install check.
// The possible transitions are:
//
//	[Created] → passed | failed | error
//
// A check never retries; whatever the container reports on first
// completion is final.
type CheckStatus string

const (
	// StatusPassed indicates the installer reported success for the
	// package on the active interpreter.
	StatusPassed CheckStatus = "passed"

	// StatusFailed indicates the install command ran and exited non-zero.
	StatusFailed CheckStatus = "failed"

	// StatusError indicates an infrastructure failure before the install
	// command could report a result (image pull failed, container could
	// not be created, the check timed out, or the run was cancelled).
	StatusError CheckStatus = "error"
)

// String returns the string representation of CheckStatus.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (s CheckStatus) String() string {
	return string(s)
}

// IsValid checks whether the CheckStatus value is one of the
// predefined valid states.
func (s CheckStatus) IsValid() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusError:
		return true
	default:
		return false
	}
}

// ParseCheckStatus converts a string to a CheckStatus.
// Returns an error if the string does not match any valid status.
func ParseCheckStatus(s string) (CheckStatus, error) {
	status := CheckStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid check status: %q (valid: passed, failed, error)", s)
	}
	return status, nil
}

// MatrixEntry represents one independent check job produced by crossing
// the configured platforms with the configured interpreter versions.
// Entries are fully independent of each other: they share no state and
// carry no ordering guarantee, matching the fan-out semantics of a CI
// job matrix.
type MatrixEntry struct {
	// Platform is the human-readable operating system label this entry
	// runs on (e.g., "linux-bookworm").
	Platform string `json:"platform"`

	// Image is the fully resolved container image for this entry,
	// with the version placeholder already substituted
	// (e.g., "python:3.9-slim-bookworm").
	Image string `json:"image"`

	// PythonVersion is the interpreter version string (e.g., "3.9").
	PythonVersion string `json:"pythonVersion"`

	// EnvName is the name of the isolated environment created inside the
	// container, derived as "<package>-py<suffix>" where suffix is the
	// version string with its separator removed (e.g., "causalml-py39").
	EnvName string `json:"envName"`
}

// versionRegex validates interpreter version strings: one or more
// dot-separated decimal components (e.g., "3.9", "3.12", "3.12.1").
var versionRegex = regexp.MustCompile(`^[0-9]+(\.[0-9]+)+$`)

// ValidateVersion checks if the given string is a well-formed interpreter
// version. Valid versions consist of dot-separated decimal components.
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("interpreter version must not be empty")
	}
	if !versionRegex.MatchString(version) {
		return fmt.Errorf("invalid interpreter version %q: must be dot-separated decimals like \"3.9\"", version)
	}
	return nil
}

// VersionSuffix derives the environment-name suffix from an interpreter
// version string by removing the separator characters:
//
//	"3.9"  → "39"
//	"3.12" → "312"
//
// The suffix is used only to name the isolated environment created inside
// the check container.
func VersionSuffix(version string) string {
	return strings.ReplaceAll(version, ".", "")
}

// EnvName builds the isolated environment name for a package/version pair.
// Format: "<package>-py<suffix>", e.g. EnvName("causalml", "3.9") returns
// "causalml-py39".
func EnvName(pkg, version string) string {
	return fmt.Sprintf("%s-py%s", pkg, VersionSuffix(version))
}

// packageRegex validates PyPI distribution names per PEP 503 normalization:
// letters, digits, and runs of ".", "-", "_" between them.
var packageRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidatePackage checks if the given name is a plausible distribution
// name. This guards the shell script rendered into the container against
// option injection (a package name starting with "-" would be parsed as a
// pip flag).
func ValidatePackage(name string) error {
	if name == "" {
		return fmt.Errorf("package name must not be empty")
	}
	if !packageRegex.MatchString(name) {
		return fmt.Errorf("invalid package name %q: must contain only letters, digits, '.', '-', '_' and start/end with a letter or digit", name)
	}
	return nil
}

// CheckResult holds the outcome of a single matrix entry's install check.
type CheckResult struct {
	// Entry is the matrix entry this result belongs to.
	Entry MatrixEntry `json:"entry"`

	// Status is the final outcome of the check.
	Status CheckStatus `json:"status"`

	// ExitCode is the container's process exit code. Meaningful only for
	// passed (0) and failed (non-zero) statuses; -1 for error status.
	ExitCode int `json:"exitCode"`

	// Duration is the wall-clock time the check took, from container
	// creation to completion.
	Duration time.Duration `json:"duration"`

	// ContainerID identifies the Docker container that ran this check.
	// Empty if the container could not be created. Useful with
	// keep-containers mode for post-mortem inspection.
	ContainerID string `json:"containerId,omitempty"`

	// LogTail holds the last portion of the container's combined output,
	// captured for failure diagnosis.
	LogTail string `json:"logTail,omitempty"`

	// Err records the infrastructure error for error-status results.
	// Not serialized; the message is folded into LogTail for output.
	Err error `json:"-"`
}

// RunSummary aggregates the results of one full matrix run.
type RunSummary struct {
	// RunID uniquely identifies this run. It is also stamped on every
	// check container as a label so kept containers can be grouped later.
	RunID string `json:"runId"`

	// Package is the distribution name that was installed.
	Package string `json:"package"`

	// StartedAt is the timestamp when the run began.
	StartedAt time.Time `json:"startedAt"`

	// Results holds one entry per matrix job, in matrix declaration order
	// regardless of completion order.
	Results []CheckResult `json:"results"`
}

// PassedCount returns the number of checks that passed.
func (r *RunSummary) PassedCount() int {
	return r.countStatus(StatusPassed)
}

// FailedCount returns the number of checks that failed or errored.
// Both count against the run: an errored check did not demonstrate
// that the package installs.
func (r *RunSummary) FailedCount() int {
	return r.countStatus(StatusFailed) + r.countStatus(StatusError)
}

// Ok reports whether every check in the run passed.
func (r *RunSummary) Ok() bool {
	return r.FailedCount() == 0
}

func (r *RunSummary) countStatus(status CheckStatus) int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Status == status {
			n++
		}
	}
	return n
}

// ContainerInfo holds runtime information about a Docker container.
// This data is fetched dynamically from the Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// State is the Docker container state (e.g., "running", "exited",
	// "created").
	State string `json:"state"`

	// Labels is the full set of Docker labels on the container,
	// including the pipsmoke.* management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// CheckMeta is the check metadata reconstructed from a kept container's
// pipsmoke.* labels. It identifies which matrix entry of which run the
// container belongs to.
type CheckMeta struct {
	// Package is the distribution name the check installed.
	Package string `json:"package"`

	// PythonVersion is the interpreter version of the matrix entry.
	PythonVersion string `json:"pythonVersion"`

	// Platform is the operating system label of the matrix entry.
	Platform string `json:"platform"`

	// EnvName is the isolated environment name used inside the container.
	EnvName string `json:"envName"`

	// RunID identifies the run this check belonged to.
	RunID string `json:"runId"`

	// StartedAt is the timestamp when the check's run began.
	StartedAt time.Time `json:"startedAt"`
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration file was not found
	// or failed to parse/validate.
	ExitConfigError ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitCheckFailed indicates one or more install checks in the run
	// failed or errored.
	ExitCheckFailed ExitCode = 4

	// ExitBadSchedule indicates the cron schedule expression could not
	// be parsed.
	ExitBadSchedule ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface. It combines the message with
// the underlying error, if present.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, enabling errors.Is/errors.As
// to traverse the error chain.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError wrapping an underlying error.
// Passing nil for err is allowed and equivalent to NewCLIError.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
