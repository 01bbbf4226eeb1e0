package docker

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// Label key constants define the Docker label keys stamped on every
// check container. Labels are pipsmoke's sole persistence mechanism —
// there is no state file; "list" and "clean" reconstruct everything
// from container inspection.
//
// All keys share the "pipsmoke." prefix to namespace them away from
// labels set by other tools.
const (
	// LabelPrefix is the common prefix for all pipsmoke labels.
	LabelPrefix = "pipsmoke."

	// LabelManagedBy identifies containers created by pipsmoke. This is
	// the primary label used for filtering and discovery.
	// Key: "pipsmoke.managed-by", Value: always "pipsmoke".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelPackage stores the distribution name under test.
	// Key: "pipsmoke.package", Value: e.g. "causalml".
	LabelPackage = LabelPrefix + "package"

	// LabelPythonVersion stores the interpreter version of the entry.
	// Key: "pipsmoke.python-version", Value: e.g. "3.9".
	LabelPythonVersion = LabelPrefix + "python-version"

	// LabelPlatform stores the operating system label of the entry.
	// Key: "pipsmoke.platform", Value: e.g. "linux-bookworm".
	LabelPlatform = LabelPrefix + "platform"

	// LabelEnvName stores the isolated environment name created inside
	// the container.
	// Key: "pipsmoke.env-name", Value: e.g. "causalml-py39".
	LabelEnvName = LabelPrefix + "env-name"

	// LabelRunID stores the identifier of the run that created the
	// container, so kept containers can be grouped by run.
	// Key: "pipsmoke.run-id", Value: UUID string.
	LabelRunID = LabelPrefix + "run-id"

	// LabelStartedAt stores the run's start timestamp.
	// Key: "pipsmoke.started-at", Value: RFC3339 formatted timestamp.
	LabelStartedAt = LabelPrefix + "started-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
const ManagedByValue = "pipsmoke"

// BuildLabels constructs the Docker label map for one check container.
// The labels allow full reconstruction of the check's CheckMeta from
// container inspection alone.
func BuildLabels(entry model.MatrixEntry, pkg, runID string, startedAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy:     ManagedByValue,
		LabelPackage:       pkg,
		LabelPythonVersion: entry.PythonVersion,
		LabelPlatform:      entry.Platform,
		LabelEnvName:       entry.EnvName,
		LabelRunID:         runID,
		// RFC3339 in UTC keeps the timestamp consistent regardless of
		// the host machine's timezone.
		LabelStartedAt: startedAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels reconstructs a CheckMeta from Docker container labels.
// This is the inverse of BuildLabels, used by "list" to rebuild the
// domain view of kept containers.
//
// All keys are required. Missing keys are reported together rather than
// failing on the first, so the error names everything that's wrong.
func ParseLabels(labels map[string]string) (*model.CheckMeta, error) {
	requiredKeys := []string{
		LabelManagedBy,
		LabelPackage,
		LabelPythonVersion,
		LabelPlatform,
		LabelEnvName,
		LabelRunID,
		LabelStartedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	startedAt, err := time.Parse(time.RFC3339, labels[LabelStartedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelStartedAt, err)
	}

	return &model.CheckMeta{
		Package:       labels[LabelPackage],
		PythonVersion: labels[LabelPythonVersion],
		Platform:      labels[LabelPlatform],
		EnvName:       labels[LabelEnvName],
		RunID:         labels[LabelRunID],
		StartedAt:     startedAt,
	}, nil
}
