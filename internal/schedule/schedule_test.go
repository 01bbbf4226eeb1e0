package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_Valid verifies that well-formed five-field expressions and
// descriptors are accepted.
func TestParse_Valid(t *testing.T) {
	for _, expr := range []string{"0 0 1 * *", "30 4 * * 1", "@monthly"} {
		s, err := Parse(expr)
		require.NoError(t, err, "expression %q should parse", expr)
		assert.Equal(t, expr, s.Expr)
	}
}

// TestParse_Invalid verifies malformed expressions are rejected.
func TestParse_Invalid(t *testing.T) {
	for _, expr := range []string{"", "not a cron", "61 0 1 * *", "0 0 1 *"} {
		_, err := Parse(expr)
		assert.Error(t, err, "expression %q should be rejected", expr)
	}
}

// TestMonthlySchedule_FiresOncePerMonth verifies the default schedule's
// contract: every fire time is the first day of a month at 00:00, and
// consecutive fire times advance by exactly one calendar month.
func TestMonthlySchedule_FiresOncePerMonth(t *testing.T) {
	s, err := Parse("0 0 1 * *")
	require.NoError(t, err)

	start := time.Date(2026, 8, 23, 15, 4, 5, 0, time.UTC)
	fires := s.NextN(start, 12)
	require.Len(t, fires, 12)

	for i, fire := range fires {
		assert.Equal(t, 1, fire.Day(), "fire %d should be on day 1", i)
		assert.Equal(t, 0, fire.Hour(), "fire %d should be at hour 0", i)
		assert.Equal(t, 0, fire.Minute(), "fire %d should be at minute 0", i)
	}

	// First fire after 2026-08-23 is 2026-09-01.
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), fires[0])

	// Each subsequent fire is in the immediately following month —
	// exactly one fire per calendar month, never zero or two.
	for i := 1; i < len(fires); i++ {
		expected := fires[i-1].AddDate(0, 1, 0)
		assert.Equal(t, expected, fires[i],
			"fire %d should be one month after fire %d", i, i-1)
	}
}

// TestNext verifies the single-step variant agrees with NextN.
func TestNext(t *testing.T) {
	s, err := Parse("0 0 1 * *")
	require.NoError(t, err)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// Fire times are strictly after the reference time, so asking from
	// exactly midnight on the 1st yields the next month's fire.
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), s.Next(start))
}
