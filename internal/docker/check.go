// check.go implements the single-shot install check container lifecycle:
// pull the interpreter image, create and start a labeled container that
// runs the check script, wait for completion within the configured
// timeout, capture its output, and remove it unless containers are kept.
//
// It also provides discovery (list) and cleanup (remove) of kept check
// containers, both filtered server-side by the pipsmoke management label.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	// Docker API types for container listing results.
	"github.com/docker/docker/api/types"

	// container package provides Config, ListOptions, RemoveOptions,
	// LogsOptions and wait conditions for container operations.
	"github.com/docker/docker/api/types/container"

	// filters package provides Args for building Docker API query filters.
	"github.com/docker/docker/api/types/filters"

	// image package provides PullOptions for image pulls.
	"github.com/docker/docker/api/types/image"

	// stdcopy demultiplexes the stdout/stderr stream returned by the
	// Docker logs endpoint for non-TTY containers.
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// maxLogTail caps how much container output is retained on a CheckResult.
// Full pip output for a heavy package runs to hundreds of kilobytes; the
// last few kilobytes carry the part that explains a failure.
const maxLogTail = 4096

// RunCheck executes one matrix entry's install check in a fresh container
// and returns its result. It never returns an error: every failure mode is
// folded into the CheckResult's status so that one broken entry cannot
// abort its sibling matrix jobs.
//
// Lifecycle: pull image (best effort — a locally present image is enough),
// create the container with the given labels, start it, wait for the
// process to exit, fetch logs, then remove the container unless keep is
// set. The timeout caps the whole sequence from pull through wait.
//
// Status mapping:
//   - exit code 0          → StatusPassed
//   - non-zero exit code   → StatusFailed
//   - anything earlier     → StatusError (pull+create failed, start
//     failed, timeout, cancellation)
func RunCheck(ctx context.Context, cli *Client, entry model.MatrixEntry, script string, labels map[string]string, timeout time.Duration, keep bool) model.CheckResult {
	started := time.Now()

	result := model.CheckResult{
		Entry:    entry,
		Status:   model.StatusError,
		ExitCode: -1,
	}

	// The timeout bounds the whole check lifecycle — pull, create,
	// start, wait — not just the wait. A stalled registry pull spends
	// the same wall clock budget as a slow install, so it cannot wedge
	// the entry's goroutine (or a sequential watch loop) indefinitely.
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Step 1: Pull the interpreter image. Pull failures are tolerated
	// here because the image may already be present locally; if it is
	// not, container creation fails below and reports both errors.
	pullErr := PullImage(checkCtx, cli, entry.Image)

	// Step 2: Create the check container. The script runs under "sh -c";
	// the official python images all ship a POSIX shell.
	containerName := checkContainerName(entry, labels[LabelRunID])
	created, err := cli.Inner().ContainerCreate(checkCtx,
		&container.Config{
			Image:  entry.Image,
			Cmd:    []string{"sh", "-c", script},
			Labels: labels,
		},
		nil, nil, nil, containerName)
	if err != nil {
		if pullErr != nil {
			err = fmt.Errorf("%w (image pull also failed: %v)", err, pullErr)
		}
		result.Err = fmt.Errorf("failed to create container for %s: %w", entry.EnvName, err)
		result.LogTail = result.Err.Error()
		result.Duration = time.Since(started)
		return result
	}
	result.ContainerID = created.ID

	// Step 3: Start it.
	if err := cli.Inner().ContainerStart(checkCtx, created.ID, container.StartOptions{}); err != nil {
		result.Err = fmt.Errorf("failed to start container %q: %w", containerName, err)
		result.LogTail = result.Err.Error()
		result.Duration = time.Since(started)
		removeQuietly(cli, created.ID, keep)
		return result
	}

	// Step 4: Wait for the check to finish, within whatever remains of
	// the budget. ContainerWait delivers on exactly one of the two
	// channels.
	statusCh, errCh := cli.Inner().ContainerWait(checkCtx, created.ID, container.WaitConditionNotRunning)
	select {
	case waitErr := <-errCh:
		// Timeout or cancellation. The container may still be running;
		// removal below force-kills it.
		result.Err = fmt.Errorf("check %s did not complete: %w", entry.EnvName, waitErr)
		result.LogTail = result.Err.Error()
	case status := <-statusCh:
		result.ExitCode = int(status.StatusCode)
		if status.StatusCode == 0 {
			result.Status = model.StatusPassed
		} else {
			result.Status = model.StatusFailed
		}
	}

	// Step 5: Capture output. Logs are fetched with the parent context so
	// a post-timeout fetch still works for whatever the container printed.
	// On a wait error the error message is kept in front of the tail.
	if logs, logErr := fetchLogs(ctx, cli, created.ID); logErr == nil && logs != "" {
		tail := TailString(logs, maxLogTail)
		if result.Err != nil {
			result.LogTail = result.Err.Error() + "\n" + tail
		} else {
			result.LogTail = tail
		}
	}

	// Step 6: Dispose of the container unless the user asked to keep it.
	removeQuietly(cli, created.ID, keep)

	result.Duration = time.Since(started)
	return result
}

// checkContainerName builds a unique, human-readable container name.
// The platform label disambiguates entries that share an env name across
// platforms, and the run ID prefix disambiguates runs.
func checkContainerName(entry model.MatrixEntry, runID string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("pipsmoke-%s-%s-%s", entry.Platform, entry.EnvName, short)
}

// removeQuietly removes a check container, ignoring failures — by this
// point the result is already determined and a leftover container is
// recoverable with "pipsmoke clean". Force removal covers containers
// still running after a timeout.
func removeQuietly(cli *Client, containerID string, keep bool) {
	if keep {
		return
	}
	// Removal uses its own short-lived context: the caller's context may
	// already be cancelled, and cleanup should still be attempted.
	rmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = cli.Inner().ContainerRemove(rmCtx, containerID, container.RemoveOptions{Force: true})
}

// fetchLogs returns the container's combined stdout and stderr.
// Non-TTY container logs arrive as a multiplexed stream; stdcopy
// demultiplexes it. Both streams are written to one buffer, preserving
// their interleaving as delivered by the daemon.
func fetchLogs(ctx context.Context, cli *Client, containerID string) (string, error) {
	rc, err := cli.Inner().ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TailString returns at most max bytes from the end of s, cut at a line
// boundary so the tail never starts mid-line.
//
// Exported for testing.
func TailString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	tail := s[len(s)-max:]
	if idx := strings.IndexByte(tail, '\n'); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return tail
}

// PullImage pulls the given image reference, blocking until the pull
// completes. The progress stream must be drained for the pull to finish;
// its content is discarded since pipsmoke has no use for layer progress.
func PullImage(ctx context.Context, cli *Client, ref string) error {
	rc, err := cli.Inner().ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %q: %w", ref, err)
	}
	defer func() { _ = rc.Close() }()

	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("image pull for %q interrupted: %w", ref, err)
	}
	return nil
}

// ListCheckContainers queries the Docker daemon for all containers with
// the "pipsmoke.managed-by=pipsmoke" label. It returns kept check
// containers from previous runs, including exited ones.
//
// This is the discovery entry point for the "list" and "clean" commands.
// All state is derived from container labels; there is no external
// database.
func ListCheckContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	// Filtering happens server-side, which is cheaper than listing every
	// container on the host and filtering in Go.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	// All:true includes exited containers — a finished check container
	// is exactly what "list" exists to show.
	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}

	return result, nil
}

// containerToInfo converts a Docker API Container struct to the domain
// ContainerInfo. Pure mapping, no side effects. The Docker API returns
// container names with a leading "/" that is stripped for display.
func containerToInfo(c types.Container) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		State:         c.State,
		Labels:        c.Labels,
	}
}

// GroupByRun groups check containers by their "pipsmoke.run-id" label.
// Containers missing the label are silently skipped; this should not
// happen since ListCheckContainers already filters on the management
// label, and every managed container is created with a run ID.
func GroupByRun(containers []model.ContainerInfo) map[string][]model.ContainerInfo {
	groups := make(map[string][]model.ContainerInfo)

	for _, c := range containers {
		runID, ok := c.Labels[LabelRunID]
		if !ok || runID == "" {
			continue
		}
		groups[runID] = append(groups[runID], c)
	}

	return groups
}

// RemoveCheckContainer removes a check container by ID. Force removal
// kills a still-running container first, which is what "clean" wants:
// complete cleanup without graceful shutdown.
func RemoveCheckContainer(ctx context.Context, cli *Client, containerID string) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: true,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}
