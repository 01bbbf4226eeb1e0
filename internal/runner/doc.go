// Package runner fans a check matrix out into concurrent install checks
// and collects their results into a run summary.
//
// The concurrency model mirrors a CI matrix: every entry is an
// independent job with no ordering guarantee and no shared mutable state,
// and a failing entry never cancels its siblings. Results are returned
// in matrix declaration order regardless of completion order.
package runner
