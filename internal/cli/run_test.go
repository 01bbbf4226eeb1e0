package cli

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// TestFormatVerdict verifies the one-line run verdict for clean and
// mixed outcomes.
func TestFormatVerdict(t *testing.T) {
	clean := &model.RunSummary{
		Results: []model.CheckResult{
			{Status: model.StatusPassed},
			{Status: model.StatusPassed},
			{Status: model.StatusPassed},
			{Status: model.StatusPassed},
		},
	}
	assert.Equal(t, "4 passed", FormatVerdict(clean))

	mixed := &model.RunSummary{
		Results: []model.CheckResult{
			{Status: model.StatusPassed},
			{Status: model.StatusPassed},
			{Status: model.StatusFailed},
			{Status: model.StatusError},
		},
	}
	// Errored checks count as failures in the verdict: they did not
	// demonstrate that the package installs.
	assert.Equal(t, "2 passed, 2 failed", FormatVerdict(mixed))
}

// TestShortID verifies container ID abbreviation.
func TestShortID(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortID("0123456789abcdef0123"))
	assert.Equal(t, "short", shortID("short"))
}

// TestVersionLess verifies numeric version ordering: "3.9" precedes
// "3.10", unlike lexicographic string comparison.
func TestVersionLess(t *testing.T) {
	assert.True(t, versionLess("3.9", "3.10"))
	assert.False(t, versionLess("3.10", "3.9"))
	assert.True(t, versionLess("3.10", "3.11"))
	assert.False(t, versionLess("3.9", "3.9"))

	// Shorter prefix sorts first; non-numeric input falls back to
	// string comparison.
	assert.True(t, versionLess("3.9", "3.9.1"))
	assert.True(t, versionLess("3.x", "3.y"))

	versions := []string{"3.12", "3.10", "3.9", "3.11"}
	sort.Slice(versions, func(i, j int) bool { return versionLess(versions[i], versions[j]) })
	assert.Equal(t, []string{"3.9", "3.10", "3.11", "3.12"}, versions)
}

// TestRenderInitJSON verifies init's JSON output is well-formed even
// for paths that need escaping.
func TestRenderInitJSON(t *testing.T) {
	out := renderInitJSON(`/tmp/odd "dir"\pipsmoke.yaml`, "causalml")

	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, `/tmp/odd "dir"\pipsmoke.yaml`, parsed["created"])
	assert.Equal(t, "causalml", parsed["package"])
}
