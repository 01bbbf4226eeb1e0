package docker

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pipsmoke/internal/model"
)

// hangingDaemon listens on a local TCP port and accepts connections
// without ever responding, simulating a Docker daemon (or registry
// proxy) that has stopped answering. Connections are held open until
// the test finishes.
func hangingDaemon(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				<-done
				_ = c.Close()
			}(conn)
		}
	}()

	return "tcp://" + ln.Addr().String()
}

// TestRunCheck_TimeoutBoundsWholeLifecycle verifies the per-check
// timeout caps the entire container lifecycle, not just the final wait:
// against a daemon that accepts but never answers, the image pull and
// container creation must give up within the budget and the entry must
// come back as an error instead of hanging its goroutine.
func TestRunCheck_TimeoutBoundsWholeLifecycle(t *testing.T) {
	cli, err := newClientWithHost(hangingDaemon(t))
	require.NoError(t, err)
	defer func() { _ = cli.Close() }()

	entry := model.MatrixEntry{
		Platform:      "linux-bookworm",
		Image:         "python:3.9-slim-bookworm",
		PythonVersion: "3.9",
		EnvName:       "causalml-py39",
	}
	labels := BuildLabels(entry, "causalml", "run-timeout", time.Now().UTC())

	start := time.Now()
	result := RunCheck(context.Background(), cli, entry, "true\n", labels, 200*time.Millisecond, false)
	elapsed := time.Since(start)

	assert.Equal(t, model.StatusError, result.Status)
	assert.Equal(t, -1, result.ExitCode)
	assert.Error(t, result.Err)
	assert.Empty(t, result.ContainerID, "no container can exist when the daemon never answered")

	// The parent context carries no deadline, so only the per-check
	// timeout can have cut this short. Generous upper bound to keep the
	// test stable on slow machines.
	assert.Less(t, elapsed, 10*time.Second, "check must not outlive its timeout by orders of magnitude")
}
