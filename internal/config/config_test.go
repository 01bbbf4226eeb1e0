package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdataPath returns the path to a fixture file within this package's
// testdata directory. Test binaries run with the package directory as
// their working directory, so a relative path is sufficient.
func testdataPath(name string) string {
	return filepath.Join("testdata", name)
}

// --- Load tests ---

// TestLoad_FullYAML verifies that a fully populated YAML config is
// parsed with no defaulting applied.
func TestLoad_FullYAML(t *testing.T) {
	cfg, err := Load(testdataPath("full.yaml"))
	require.NoError(t, err, "Load should succeed for a valid YAML config")

	assert.Equal(t, "causalml", cfg.Package)
	assert.Equal(t, "https://pypi.org/simple", cfg.IndexURL)
	assert.Equal(t, "0 0 1 * *", cfg.Schedule)
	assert.Equal(t, []string{"3.9", "3.10", "3.11", "3.12"}, cfg.PythonVersions)

	require.Len(t, cfg.Platforms, 1)
	assert.Equal(t, "linux-bookworm", cfg.Platforms[0].Label)
	assert.Equal(t, "python:{version}-slim-bookworm", cfg.Platforms[0].Image)

	assert.Equal(t, "30m", cfg.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.EffectiveTimeout())
	assert.True(t, cfg.KeepContainers)
}

// TestLoad_MinimalYAML verifies that a config declaring only the package
// is filled with every default: the monthly schedule, the four-version
// matrix, the single default platform, and the default timeout.
func TestLoad_MinimalYAML(t *testing.T) {
	cfg, err := Load(testdataPath("minimal.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "causalml", cfg.Package)
	assert.Equal(t, DefaultSchedule, cfg.Schedule)
	assert.Equal(t, []string{"3.9", "3.10", "3.11", "3.12"}, cfg.PythonVersions)

	require.Len(t, cfg.Platforms, 1)
	assert.Equal(t, DefaultPlatformLabel, cfg.Platforms[0].Label)
	assert.Equal(t, DefaultImageTemplate, cfg.Platforms[0].Image)

	assert.Equal(t, 20*time.Minute, cfg.EffectiveTimeout())
	assert.False(t, cfg.KeepContainers)

	// The defaulted config must also validate cleanly.
	assert.Empty(t, Validate(cfg))
}

// TestLoad_JSONC verifies that .jsonc configs parse with comments and
// trailing commas stripped.
func TestLoad_JSONC(t *testing.T) {
	cfg, err := Load(testdataPath("commented.jsonc"))
	require.NoError(t, err, "JSONC comments and trailing commas should be tolerated")

	assert.Equal(t, "causalml", cfg.Package)
	assert.Equal(t, "0 0 1 * *", cfg.Schedule)
	assert.Equal(t, []string{"3.11", "3.12"}, cfg.PythonVersions)
	require.Len(t, cfg.Platforms, 1)
	assert.Equal(t, "linux-bookworm", cfg.Platforms[0].Label)
}

// TestLoad_Missing verifies a missing file surfaces as a config error.
func TestLoad_Missing(t *testing.T) {
	_, err := Load(testdataPath("does-not-exist.yaml"))
	assert.Error(t, err)
}

// TestLoad_BrokenYAML verifies a parse failure surfaces as an error
// rather than a half-populated config.
func TestLoad_BrokenYAML(t *testing.T) {
	_, err := Load(testdataPath("broken.yaml"))
	assert.Error(t, err)
}

// --- FindConfig tests ---

// TestFindConfig verifies the priority search over known file names.
func TestFindConfig(t *testing.T) {
	// The testdata directory contains no pipsmoke.* file, so the search
	// must fail there.
	_, err := FindConfig("testdata")
	assert.Error(t, err)

	// A freshly written pipsmoke.yaml in a temp dir is found.
	dir := t.TempDir()
	cfg := Default()
	cfg.Package = "causalml"
	data, err := cfg.Marshal()
	require.NoError(t, err)
	path := filepath.Join(dir, "pipsmoke.yaml")
	require.NoError(t, writeFile(path, data))

	found, err := FindConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

// TestMarshalRoundTrip verifies that a marshaled config loads back
// identically, which is what "pipsmoke init" relies on.
func TestMarshalRoundTrip(t *testing.T) {
	original := Default()
	original.Package = "causalml"
	original.IndexURL = "https://pypi.org/simple"

	data, err := original.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pipsmoke.yaml")
	require.NoError(t, writeFile(path, data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

// --- Validate tests ---

// TestValidate_Clean verifies a complete config produces no findings.
func TestValidate_Clean(t *testing.T) {
	cfg := Default()
	cfg.Package = "causalml"
	assert.Empty(t, Validate(cfg))
}

// TestValidate_MissingPackage verifies the one field with no default
// is required.
func TestValidate_MissingPackage(t *testing.T) {
	cfg := Default()
	errs := Validate(cfg)

	require.NotEmpty(t, errs)
	assert.Equal(t, "package", errs[0].Field)
}

// TestValidate_BadVersions verifies malformed and duplicate versions
// are each reported with their index.
func TestValidate_BadVersions(t *testing.T) {
	cfg := Default()
	cfg.Package = "causalml"
	cfg.PythonVersions = []string{"3.9", "3.x", "3.9"}

	errs := Validate(cfg)
	require.Len(t, errs, 2)
	assert.Equal(t, "pythonVersions[1]", errs[0].Field)
	assert.Equal(t, "pythonVersions[2]", errs[1].Field)
	assert.Contains(t, errs[1].Message, "duplicate")
}

// TestValidate_ImageTemplate verifies literal images without the
// version placeholder are rejected.
func TestValidate_ImageTemplate(t *testing.T) {
	cfg := Default()
	cfg.Package = "causalml"
	cfg.Platforms = []Platform{{Label: "linux-bookworm", Image: "python:3.9-slim"}}

	errs := Validate(cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, "platforms[0].image", errs[0].Field)
}

// TestValidate_BadSchedule verifies an unparseable cron expression is
// reported.
func TestValidate_BadSchedule(t *testing.T) {
	cfg := Default()
	cfg.Package = "causalml"
	cfg.Schedule = "every full moon"

	errs := Validate(cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, "schedule", errs[0].Field)
}

// TestValidate_BadTimeout verifies unparseable and non-positive
// timeouts are rejected.
func TestValidate_BadTimeout(t *testing.T) {
	cfg := Default()
	cfg.Package = "causalml"

	cfg.Timeout = "soon"
	errs := Validate(cfg)
	require.Len(t, errs, 1)
	assert.Equal(t, "timeout", errs[0].Field)

	cfg.Timeout = "-5m"
	errs = Validate(cfg)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "positive")
}

// writeFile writes a test fixture with standard permissions.
func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// TestPlatform_ResolveImage verifies placeholder substitution.
func TestPlatform_ResolveImage(t *testing.T) {
	p := Platform{Label: "linux-bookworm", Image: "python:{version}-slim-bookworm"}
	assert.Equal(t, "python:3.9-slim-bookworm", p.ResolveImage("3.9"))
	assert.Equal(t, "python:3.12-slim-bookworm", p.ResolveImage("3.12"))
}
