// Package model defines the domain types and value objects for the
// pipsmoke CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (MatrixEntry, CheckResult, RunSummary, etc.) are transient
// representations of a single run. The only durable state pipsmoke has at
// all is Docker container labels on kept check containers, and those are
// reconstructed from Docker API queries at runtime.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
