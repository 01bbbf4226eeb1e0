// Package schedule wraps cron expression parsing for pipsmoke's
// scheduled trigger surface.
//
// Schedules use the standard five-field cron format (minute, hour,
// day-of-month, month, day-of-week). The default pipsmoke schedule,
// "0 0 1 * *", fires once per calendar month: day 1 at 00:00.
//
// Parsing is delegated to github.com/robfig/cron/v3. This package exists
// so the rest of the codebase deals in a small Schedule type instead of
// the cron library's interfaces.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// parser accepts the classic five-field format, plus descriptors like
// "@monthly" since they cost nothing to support.
var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Schedule is a parsed cron expression.
type Schedule struct {
	// Expr is the original expression string, kept for display.
	Expr string

	inner cron.Schedule
}

// Parse validates and compiles a cron expression.
func Parse(expr string) (*Schedule, error) {
	if expr == "" {
		return nil, fmt.Errorf("cron expression must not be empty")
	}
	s, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &Schedule{Expr: expr, inner: s}, nil
}

// Next returns the first fire time strictly after t.
func (s *Schedule) Next(t time.Time) time.Time {
	return s.inner.Next(t)
}

// NextN returns the next n fire times strictly after t, in order.
// Used by "pipsmoke validate" to show the user when the schedule
// will actually fire.
func (s *Schedule) NextN(t time.Time, n int) []time.Time {
	times := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = s.inner.Next(t)
		if t.IsZero() {
			break
		}
		times = append(times, t)
	}
	return times
}
