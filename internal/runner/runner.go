package runner

import (
	"context"
	"sync"
	"time"

	"github.com/mmr-tortoise/pipsmoke/internal/config"
	"github.com/mmr-tortoise/pipsmoke/internal/docker"
	"github.com/mmr-tortoise/pipsmoke/internal/matrix"
	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// Checker executes a single matrix entry's install check.
//
// Implementations never return an error: every failure mode is folded
// into the CheckResult status, so one broken entry cannot take down the
// rest of the fan-out. The production implementation is DockerChecker;
// tests substitute fakes.
type Checker interface {
	Check(ctx context.Context, entry model.MatrixEntry) model.CheckResult
}

// Run fans out all matrix entries concurrently through the given checker
// and assembles the RunSummary. Each entry gets its own goroutine — the
// entries are independent by construction and their count is the size of
// a small config-declared matrix, not unbounded input.
//
// Results land at their entry's index, so the summary preserves matrix
// declaration order no matter which checks finish first.
func Run(ctx context.Context, checker Checker, entries []model.MatrixEntry, pkg, runID string, startedAt time.Time) *model.RunSummary {
	results := make([]model.CheckResult, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry model.MatrixEntry) {
			defer wg.Done()
			// Each goroutine writes only its own slot; no lock needed.
			results[i] = checker.Check(ctx, entry)
		}(i, entry)
	}
	wg.Wait()

	return &model.RunSummary{
		RunID:     runID,
		Package:   pkg,
		StartedAt: startedAt,
		Results:   results,
	}
}

// DockerChecker is the production Checker: it renders the entry's check
// script, stamps the run's labels, and executes the check in a fresh
// Docker container.
type DockerChecker struct {
	// Client is the connected Docker client shared by all checks of a run.
	Client *docker.Client

	// Cfg supplies the package name, index URL, timeout, and container
	// retention policy.
	Cfg *config.Config

	// RunID and StartedAt identify the run on every container label.
	RunID     string
	StartedAt time.Time

	// Keep preserves finished containers for inspection. It is resolved
	// by the CLI layer (config value, possibly overridden by a flag).
	Keep bool
}

// Check implements Checker.
func (d *DockerChecker) Check(ctx context.Context, entry model.MatrixEntry) model.CheckResult {
	script := matrix.Script(entry, d.Cfg)
	labels := docker.BuildLabels(entry, d.Cfg.Package, d.RunID, d.StartedAt)
	return docker.RunCheck(ctx, d.Client, entry, script, labels, d.Cfg.EffectiveTimeout(), d.Keep)
}
