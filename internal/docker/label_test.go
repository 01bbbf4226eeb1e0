package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// testEntry returns a representative matrix entry for label round trips.
func testEntry() model.MatrixEntry {
	return model.MatrixEntry{
		Platform:      "linux-bookworm",
		Image:         "python:3.9-slim-bookworm",
		PythonVersion: "3.9",
		EnvName:       "causalml-py39",
	}
}

// TestBuildLabels verifies that BuildLabels produces the full pipsmoke
// label set for a check container.
func TestBuildLabels(t *testing.T) {
	startedAt := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	labels := BuildLabels(testEntry(), "causalml", "run-abc123", startedAt)

	assert.Equal(t, ManagedByValue, labels[LabelManagedBy],
		"managed-by label should always carry the constant value")
	assert.Equal(t, "causalml", labels[LabelPackage])
	assert.Equal(t, "3.9", labels[LabelPythonVersion])
	assert.Equal(t, "linux-bookworm", labels[LabelPlatform])
	assert.Equal(t, "causalml-py39", labels[LabelEnvName])
	assert.Equal(t, "run-abc123", labels[LabelRunID])
	assert.Equal(t, "2026-09-01T00:00:00Z", labels[LabelStartedAt])

	assert.Len(t, labels, 7, "expected exactly the 7 pipsmoke labels")
}

// TestParseLabels verifies the inverse of BuildLabels: a CheckMeta is
// fully reconstructed from a label map.
func TestParseLabels(t *testing.T) {
	startedAt := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	labels := BuildLabels(testEntry(), "causalml", "run-abc123", startedAt)

	meta, err := ParseLabels(labels)
	require.NoError(t, err, "ParseLabels should succeed on BuildLabels output")

	assert.Equal(t, "causalml", meta.Package)
	assert.Equal(t, "3.9", meta.PythonVersion)
	assert.Equal(t, "linux-bookworm", meta.Platform)
	assert.Equal(t, "causalml-py39", meta.EnvName)
	assert.Equal(t, "run-abc123", meta.RunID)
	assert.Equal(t, startedAt, meta.StartedAt)
}

// TestParseLabels_MissingKeys verifies that every missing required label
// is named in a single error.
func TestParseLabels_MissingKeys(t *testing.T) {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelPackage:   "causalml",
	}

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelPythonVersion)
	assert.Contains(t, err.Error(), LabelRunID)
	assert.Contains(t, err.Error(), LabelStartedAt)
}

// TestParseLabels_WrongManager verifies containers labeled by some other
// tool are rejected even if all keys are present.
func TestParseLabels_WrongManager(t *testing.T) {
	labels := BuildLabels(testEntry(), "causalml", "run-abc123", time.Now())
	labels[LabelManagedBy] = "someone-else"

	_, err := ParseLabels(labels)
	assert.Error(t, err)
}

// TestParseLabels_BadTimestamp verifies a malformed started-at label is
// rejected.
func TestParseLabels_BadTimestamp(t *testing.T) {
	labels := BuildLabels(testEntry(), "causalml", "run-abc123", time.Now())
	labels[LabelStartedAt] = "yesterday"

	_, err := ParseLabels(labels)
	assert.Error(t, err)
}

// TestGroupByRun verifies grouping of kept containers by run ID and
// skipping of unlabeled strays.
func TestGroupByRun(t *testing.T) {
	containers := []model.ContainerInfo{
		{ContainerID: "a", Labels: map[string]string{LabelRunID: "run-1"}},
		{ContainerID: "b", Labels: map[string]string{LabelRunID: "run-1"}},
		{ContainerID: "c", Labels: map[string]string{LabelRunID: "run-2"}},
		{ContainerID: "d", Labels: map[string]string{}},
	}

	groups := GroupByRun(containers)

	require.Len(t, groups, 2)
	assert.Len(t, groups["run-1"], 2)
	assert.Len(t, groups["run-2"], 1)
}

// TestCheckContainerName verifies the name layout and run ID shortening.
func TestCheckContainerName(t *testing.T) {
	name := checkContainerName(testEntry(), "0123456789abcdef")
	assert.Equal(t, "pipsmoke-linux-bookworm-causalml-py39-01234567", name)

	// Short run IDs are used as-is.
	name = checkContainerName(testEntry(), "xyz")
	assert.Equal(t, "pipsmoke-linux-bookworm-causalml-py39-xyz", name)
}

// TestTailString verifies log tail truncation at line boundaries.
func TestTailString(t *testing.T) {
	// Short strings pass through untouched.
	assert.Equal(t, "short", TailString("short", 100))

	// Long strings are cut to at most max bytes, starting after the
	// first newline inside the window.
	s := "line one is quite long\nline two\nline three\n"
	tail := TailString(s, 20)
	assert.LessOrEqual(t, len(tail), 20)
	assert.Equal(t, "line three\n", tail)
}
