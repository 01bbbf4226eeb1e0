// Package cli — watch.go implements the "pipsmoke watch" command.
//
// Watch mode is the daemon rendition of the scheduled trigger: it stays
// in the foreground and executes the full check matrix every time the
// configured cron expression fires (default: monthly, day 1 at 00:00),
// until interrupted.
//
// Runs are strictly sequential — a firing that arrives while the
// previous run is still installing waits for it. Individual run failures
// are reported but never terminate the watch loop; the CI analogue is a
// red pipeline run, not a dead scheduler.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pipsmoke/internal/model"
	"github.com/mmr-tortoise/pipsmoke/internal/schedule"
)

// watchFlags holds the flag values for the watch command.
type watchFlags struct {
	immediate bool // --immediate: also run once at startup
	keep      bool // --keep: preserve finished check containers
}

// NewWatchCommand creates the "watch" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewWatchCommand() *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the check matrix on the configured cron schedule",
		Long: `Stay in the foreground and execute the full check matrix every time
the configured cron schedule fires. The default schedule, "0 0 1 * *",
fires on the first day of each month at midnight.

The process runs until interrupted (SIGINT/SIGTERM). A failing run is
reported and the watch continues to the next firing.

Examples:
  pipsmoke watch
  pipsmoke watch --immediate
  pipsmoke watch --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.immediate, "immediate", false,
		"Also run the matrix once immediately at startup")
	cmd.Flags().BoolVar(&flags.keep, "keep", false,
		"Keep finished check containers for inspection")

	return cmd
}

// runWatch is the main loop of the watch command.
func runWatch(ctx context.Context, flags *watchFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// loadConfig validated the schedule already; re-parsing here yields
	// the compiled object the loop steps with.
	sched, err := schedule.Parse(cfg.Schedule)
	if err != nil {
		return model.WrapCLIError(model.ExitBadSchedule, "invalid schedule", err)
	}

	// Terminate cleanly on SIGINT/SIGTERM. The derived context also
	// cancels any in-flight checks, whose containers are then
	// force-removed unless kept.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "pipsmoke watch: package %q, schedule %q\n", cfg.Package, sched.Expr)

	if flags.immediate {
		fireScheduledRun(ctx, flags, time.Now())
	}

	for {
		next := sched.Next(time.Now())
		fmt.Fprintf(os.Stderr, "pipsmoke watch: next run at %s\n", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			fmt.Fprintln(os.Stderr, "pipsmoke watch: shutting down")
			return nil
		case <-timer.C:
			fireScheduledRun(ctx, flags, next)
		}
	}
}

// fireScheduledRun executes one scheduled matrix run and reports its
// outcome. Errors (config drift, Docker down, failed checks) are printed
// but deliberately not returned: the watch loop outlives any single run.
func fireScheduledRun(ctx context.Context, flags *watchFlags, firedAt time.Time) {
	// A cancelled context means shutdown is in progress; skip quietly.
	if ctx.Err() != nil {
		return
	}

	VerboseLog("Schedule fired at %s", firedAt.Format(time.RFC3339))

	// The config is re-read on every firing, matching how a scheduled CI
	// workflow re-reads its static configuration on every trigger. Edits
	// between firings take effect without restarting the watch.
	cfg, err := loadConfig()
	if err != nil {
		printError("scheduled run skipped: config unavailable", err)
		return
	}

	summary, err := executeMatrixRun(ctx, cfg, flags.keep)
	if err != nil {
		printError("scheduled run failed", err)
		return
	}

	printRunSummary(summary)
	if !summary.Ok() {
		fmt.Fprintf(os.Stderr, "pipsmoke watch: run %s: %d of %d checks failed\n",
			summary.RunID, summary.FailedCount(), len(summary.Results))
	}
}
