// Package matrix expands the configured check matrix and renders the
// per-entry container scripts.
//
// The matrix is the cross product of the configured platforms and
// interpreter versions. Each resulting entry is a fully independent
// check job: entries share no state, have no ordering guarantee, and
// carry no dependency on one another.
package matrix
