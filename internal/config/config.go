package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// Default values applied to fields left unset in the configuration file.
const (
	// DefaultSchedule fires on the first day of each month at midnight,
	// the cadence a published package's install health is typically
	// re-verified at.
	DefaultSchedule = "0 0 1 * *"

	// DefaultTimeout bounds a single install check. Heavy scientific
	// packages can spend a long time compiling wheels, so the default
	// is generous.
	DefaultTimeout = "20m"

	// DefaultPlatformLabel is the operating system label used when the
	// configuration declares no platforms.
	DefaultPlatformLabel = "linux-bookworm"

	// DefaultImageTemplate is the container image used when a platform
	// declares no image. The "{version}" placeholder is substituted with
	// the interpreter version of each matrix entry.
	DefaultImageTemplate = "python:{version}-slim-bookworm"

	// versionPlaceholder is the token replaced in image templates.
	versionPlaceholder = "{version}"
)

// defaultPythonVersions is the interpreter matrix used when the
// configuration declares none.
var defaultPythonVersions = []string{"3.9", "3.10", "3.11", "3.12"}

// configFileNames lists the file names probed by FindConfig, in priority
// order. YAML variants are preferred over JSON.
var configFileNames = []string{
	"pipsmoke.yaml",
	"pipsmoke.yml",
	"pipsmoke.json",
	"pipsmoke.jsonc",
}

// Platform describes one operating system dimension of the check matrix.
type Platform struct {
	// Label is the human-readable operating system identifier
	// (e.g., "linux-bookworm"). It appears in output and on container
	// labels but has no semantics of its own.
	Label string `yaml:"label" json:"label"`

	// Image is the container image template for this platform. It must
	// contain the "{version}" placeholder, which is replaced with the
	// interpreter version when the matrix is expanded.
	Image string `yaml:"image" json:"image"`
}

// ResolveImage substitutes the interpreter version into the platform's
// image template.
//
//	{Image: "python:{version}-slim-bookworm"}.ResolveImage("3.9")
//	→ "python:3.9-slim-bookworm"
func (p Platform) ResolveImage(version string) string {
	return strings.ReplaceAll(p.Image, versionPlaceholder, version)
}

// Config is the parsed pipsmoke configuration. Field names are identical
// in YAML and JSON form.
type Config struct {
	// Package is the distribution name whose installability is verified.
	// This is the only field without a default.
	Package string `yaml:"package" json:"package"`

	// IndexURL optionally points pip at an alternate package index.
	// When empty, pip's default index is used.
	IndexURL string `yaml:"indexUrl,omitempty" json:"indexUrl,omitempty"`

	// Schedule is the five-field cron expression used by watch mode.
	Schedule string `yaml:"schedule,omitempty" json:"schedule,omitempty"`

	// PythonVersions lists the interpreter versions of the matrix.
	PythonVersions []string `yaml:"pythonVersions,omitempty" json:"pythonVersions,omitempty"`

	// Platforms lists the operating system dimension of the matrix.
	Platforms []Platform `yaml:"platforms,omitempty" json:"platforms,omitempty"`

	// Timeout is the per-check wall clock limit as a Go duration string
	// (e.g., "20m"). Validation guarantees it parses.
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// KeepContainers preserves finished check containers instead of
	// removing them, so failures can be inspected with "pipsmoke list"
	// and cleaned up with "pipsmoke clean".
	KeepContainers bool `yaml:"keepContainers,omitempty" json:"keepContainers,omitempty"`
}

// Default returns a Config populated with every default value.
// Package is intentionally left empty; it has no sensible default
// and validation rejects a config without it.
func Default() *Config {
	platforms := []Platform{{Label: DefaultPlatformLabel, Image: DefaultImageTemplate}}
	versions := make([]string, len(defaultPythonVersions))
	copy(versions, defaultPythonVersions)

	return &Config{
		Schedule:       DefaultSchedule,
		PythonVersions: versions,
		Platforms:      platforms,
		Timeout:        DefaultTimeout,
	}
}

// applyDefaults fills unset fields in-place with the default values.
// A platform entry present in the file but missing its image gets the
// default image template; a missing label stays empty and is caught by
// validation, because silently inventing a label would hide a typo.
func (c *Config) applyDefaults() {
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if len(c.PythonVersions) == 0 {
		c.PythonVersions = append(c.PythonVersions, defaultPythonVersions...)
	}
	if len(c.Platforms) == 0 {
		c.Platforms = []Platform{{Label: DefaultPlatformLabel, Image: DefaultImageTemplate}}
	}
	for i := range c.Platforms {
		if c.Platforms[i].Image == "" {
			c.Platforms[i].Image = DefaultImageTemplate
		}
	}
	if c.Timeout == "" {
		c.Timeout = DefaultTimeout
	}
}

// EffectiveTimeout returns the parsed per-check timeout. Call Validate
// first; on an unparseable value this falls back to the default rather
// than guessing.
func (c *Config) EffectiveTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		fallback, _ := time.ParseDuration(DefaultTimeout)
		return fallback
	}
	return d
}

// FindConfig locates the pipsmoke configuration file in the given
// directory by probing the known file names in priority order.
//
// Returns a CLIError with ExitConfigError if none of the candidates exist.
func FindConfig(dir string) (string, error) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", model.NewCLIError(
		model.ExitConfigError,
		fmt.Sprintf("no pipsmoke config found in %s (looked for %s)",
			dir, strings.Join(configFileNames, ", ")),
	)
}

// Load reads and parses the configuration file at the given path,
// dispatching on the file extension: .json/.jsonc files have their
// comments and trailing commas stripped with jsonc before standard JSON
// parsing; everything else is parsed as YAML.
//
// Unset fields are filled with defaults. The result is NOT validated;
// callers run Validate separately so they can report all findings at
// once instead of failing on the first.
func Load(path string) (*Config, error) {
	// os.ReadFile handles the open-read-close lifecycle in a single call.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("config file not found: %s", path),
				err,
			)
		}
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path),
			err,
		)
	}

	cfg := &Config{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// Strip comments (// and /* */) and trailing commas before parsing.
		// JSONC is common in hand-maintained JSON config files, so real-world
		// files frequently contain comments.
		cleanJSON := jsonc.ToJSON(data)
		if err := json.Unmarshal(cleanJSON, cfg); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("failed to parse JSON config at %s", path),
				err,
			)
		}
	default:
		// yaml.Unmarshal also accepts plain JSON, but keeping the explicit
		// dispatch preserves jsonc comment handling for .json/.jsonc files.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, model.WrapCLIError(
				model.ExitConfigError,
				fmt.Sprintf("failed to parse YAML config at %s", path),
				err,
			)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Marshal renders the configuration as YAML, used by "pipsmoke init" to
// write a starter file.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
