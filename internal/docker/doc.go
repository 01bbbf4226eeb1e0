// Package docker provides Docker Engine API wrappers and check-container
// lifecycle management for the pipsmoke CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container label management: every check container carries pipsmoke.*
//     labels identifying the package, interpreter version, platform, and
//     run, which is the tool's only persistence mechanism
//   - Running a single install check: pull image, create container,
//     start, wait for completion, capture logs, remove
//   - Discovery and cleanup of kept check containers for the "list" and
//     "clean" commands
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
