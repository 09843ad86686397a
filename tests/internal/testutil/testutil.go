//go:build integration

// Package testutil holds the setup shared by the integration tests.
package testutil

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/giantswarm/ravenembed"
)

// ServerLocationEnv names the environment variable pointing at a server zip
// file or an extracted server directory.
const ServerLocationEnv = "RAVENEMBED_SERVER_LOCATION"

var nameCounter atomic.Int64

// UniqueName returns prefix with a process-unique numeric suffix, so tests
// sharing a server never collide on database names.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, nameCounter.Add(1))
}

// SetupTestLogging installs a text logger on stderr at the level named by
// RAVENEMBED_LOG_LEVEL (default INFO).
func SetupTestLogging() {
	levelStr := os.Getenv("RAVENEMBED_LOG_LEVEL")
	if levelStr == "" {
		levelStr = "INFO"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	ravenembed.SetLogger(slog.Default().With("component", "ravenembed"))
}

// ServerLocationOrExit returns the configured server location. It exits
// the test binary successfully when none is configured, and with an error
// when the runtime host is missing.
func ServerLocationOrExit() string {
	location := os.Getenv(ServerLocationEnv)
	if location == "" {
		fmt.Fprintf(os.Stderr, "%s not set, skipping integration tests\n", ServerLocationEnv)
		os.Exit(0)
	}

	if _, err := exec.LookPath(ravenembed.DefaultDotNetPath); err != nil {
		fmt.Fprintf(os.Stderr, "%s binary not found in PATH\nInstall the .NET runtime: https://dotnet.microsoft.com/download\n",
			ravenembed.DefaultDotNetPath)
		os.Exit(1)
	}
	return location
}

// RunTestMain runs the tests and closes srv afterwards, or as soon as the
// process is interrupted. It returns the exit code of m.Run.
func RunTestMain(m *testing.M, srv ravenembed.Server, tmpDir string) int {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			signal.Stop(sigCh) // Restore default handler so a second signal force-kills
			fmt.Fprintf(os.Stderr, "\nReceived %s, shutting down...\n", sig)
			if err := srv.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Close error: %v\n", err)
			}
			_ = os.RemoveAll(tmpDir)
			os.Exit(1)
		case <-done:
			return
		}
	}()

	code := m.Run()

	signal.Stop(sigCh)
	close(done)
	if err := srv.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Close error: %v\n", err)
	}
	_ = os.RemoveAll(tmpDir)

	return code
}
