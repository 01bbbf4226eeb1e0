package matrix

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/pipsmoke/internal/config"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// Expand produces one MatrixEntry per (platform, interpreter version)
// pair, in declaration order: all versions of the first platform, then
// all versions of the second, and so on. With a single platform and four
// versions this yields exactly four entries.
//
// Expand assumes the configuration has already passed config.Validate;
// it performs no validation of its own.
func Expand(cfg *config.Config) []model.MatrixEntry {
	entries := make([]model.MatrixEntry, 0, len(cfg.Platforms)*len(cfg.PythonVersions))

	for _, platform := range cfg.Platforms {
		for _, version := range cfg.PythonVersions {
			entries = append(entries, model.MatrixEntry{
				Platform:      platform.Label,
				Image:         platform.ResolveImage(version),
				PythonVersion: version,
				EnvName:       model.EnvName(cfg.Package, version),
			})
		}
	}

	return entries
}

// Script renders the shell script executed inside an entry's container:
//
//  1. print the interpreter version string
//  2. create an isolated named environment for this entry
//  3. run exactly one install command for the configured package
//
// The script begins with "set -e", so the first failing step fails the
// whole check with that step's exit code. There is deliberately no
// retry and no cleanup: the container itself is the disposable unit.
func Script(entry model.MatrixEntry, cfg *config.Config) string {
	envPath := "/tmp/" + entry.EnvName

	var b strings.Builder
	b.WriteString("set -e\n")
	b.WriteString("python --version\n")
	fmt.Fprintf(&b, "python -m venv %s\n", envPath)
	fmt.Fprintf(&b, "%s/bin/pip install %s\n", envPath, installArgs(cfg))
	return b.String()
}

// installArgs renders the argument list of the single install command.
// The optional index URL precedes the package name.
func installArgs(cfg *config.Config) string {
	if cfg.IndexURL != "" {
		return fmt.Sprintf("--index-url %s %s", cfg.IndexURL, cfg.Package)
	}
	return cfg.Package
}
