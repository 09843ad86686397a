package ravenserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/giantswarm/ravenembed/internal/process"
)

const fakeInfo = `.NET runtimes installed:
  Microsoft.NETCore.App 7.0.20 [/usr/share/dotnet/shared/Microsoft.NETCore.App]
  Microsoft.NETCore.App 8.0.1 [/usr/share/dotnet/shared/Microsoft.NETCore.App]
  Microsoft.NETCore.App 8.0.3 [/usr/share/dotnet/shared/Microsoft.NETCore.App]
`

// fakeHost is a shell script standing in for the runtime host. It records
// its arguments and what it reads from stdin, answers --info, and otherwise
// runs serverBody.
type fakeHost struct {
	path      string
	argsFile  string
	stdinFile string
}

func newFakeHost(t *testing.T, serverBody string) fakeHost {
	t.Helper()

	dir := t.TempDir()
	h := fakeHost{
		path:      filepath.Join(dir, "dotnet"),
		argsFile:  filepath.Join(dir, "args.txt"),
		stdinFile: filepath.Join(dir, "stdin.txt"),
	}
	infoFile := filepath.Join(dir, "info.txt")
	if err := os.WriteFile(infoFile, []byte(fakeInfo), 0o644); err != nil {
		t.Fatalf("write info: %v", err)
	}

	script := fmt.Sprintf(`#!/bin/sh
if [ "$1" = "--info" ]; then cat '%s'; exit 0; fi
printf '%%s\n' "$@" > '%s'
STDIN_FILE='%s'
%s
`, infoFile, h.argsFile, h.stdinFile, serverBody)

	if err := os.WriteFile(h.path, []byte(script), 0o755); err != nil { //nolint:gosec // G306: test script must be executable
		t.Fatalf("write fake host: %v", err)
	}
	return h
}

func (h fakeHost) args(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(h.argsFile)
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func serverDir(t *testing.T) (dir, binary string) {
	t.Helper()
	dir = t.TempDir()
	binary = filepath.Join(dir, "Server", "Raven.Server.dll")
	touch(t, binary)
	return dir, binary
}

func testConfig(t *testing.T, host fakeHost) Config {
	t.Helper()
	dir, _ := serverDir(t)
	return Config{
		ServerDir:       dir,
		DataDir:         filepath.Join(t.TempDir(), "data"),
		LogsDir:         filepath.Join(t.TempDir(), "logs"),
		DotNetPath:      host.path,
		AcceptEULA:      true,
		StartupTimeout:  10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		PollInterval:    10 * time.Millisecond,
		ParentPID:       4242,
	}
}

const announceAndWait = `echo "Starting RavenDB"
echo "Server available on: http://127.0.0.1:45678   "
read cmd
echo "$cmd" > "$STDIN_FILE"
exit 0`

func TestStart_AnnouncesURL(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, announceAndWait)
	cfg := testConfig(t, host)
	cfg.FrameworkVersion = "8.0.1"
	cfg.ExtraArgs = []string{"--extra"}

	p, err := Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(p.Close)

	if got := p.URL(); got != "http://127.0.0.1:45678" {
		t.Errorf("URL() = %q, want trailing whitespace trimmed", got)
	}
	if p.Pid() == 0 {
		t.Error("Pid() = 0 for a running server")
	}

	binary := filepath.Join(cfg.ServerDir, "Server", "Raven.Server.dll")
	wantArgs := []string{
		"--fx-version", "8.0.1",
		binary,
		"--extra",
		"--Embedded.ParentProcessId=4242",
		"--License.Eula.Accepted=true",
		"--Setup.Mode=None",
		"--DataDir=" + cfg.DataDir,
		"--Logs.Path=" + cfg.LogsDir,
		"--ServerUrl=http://127.0.0.1:0",
	}
	if got := host.args(t); !slices.Equal(got, wantArgs) {
		t.Errorf("server args =\n%q\nwant\n%q", got, wantArgs)
	}

	if err := p.Stop(cfg.ShutdownTimeout); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.LastStop() != process.StopGraceful {
		t.Errorf("LastStop() = %v, want %v", p.LastStop(), process.StopGraceful)
	}
	stdin, err := os.ReadFile(host.stdinFile)
	if err != nil {
		t.Fatalf("read stdin record: %v", err)
	}
	if got := strings.TrimSpace(string(stdin)); got != "shutdown no-confirmation" {
		t.Errorf("server received %q on stdin, want the shutdown command", got)
	}

	// A second Stop is a no-op.
	if err := p.Stop(time.Second); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if p.LastStop() != process.StopNoop {
		t.Errorf("LastStop() after second Stop = %v, want %v", p.LastStop(), process.StopNoop)
	}
}

func TestStart_ResolvesRuntimeWildcard(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, announceAndWait)
	cfg := testConfig(t, host)
	cfg.FrameworkVersion = "8.0.x"

	p, err := Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(p.Close)

	args := host.args(t)
	if len(args) < 2 || args[0] != "--fx-version" || args[1] != "8.0.3" {
		t.Errorf("args start with %q, want --fx-version 8.0.3", args[:min(2, len(args))])
	}
}

func TestStart_NoMatchingRuntime(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, announceAndWait)
	cfg := testConfig(t, host)
	cfg.FrameworkVersion = "9.0.x"

	_, err := Start(context.Background(), cfg)
	if err == nil {
		t.Fatal("Start() succeeded, want runtime resolution failure")
	}
	if !strings.Contains(err.Error(), "Available runtimes") {
		t.Errorf("error %q should list available runtimes", err.Error())
	}
	if _, statErr := os.Stat(host.argsFile); !os.IsNotExist(statErr) {
		t.Error("server was spawned despite runtime resolution failure")
	}
}

func TestStart_Timeout(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, `echo "Starting RavenDB"
read cmd
exit 0`)
	cfg := testConfig(t, host)
	cfg.StartupTimeout = 300 * time.Millisecond

	start := time.Now()
	_, err := Start(context.Background(), cfg)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrStartupFailed) {
		t.Fatalf("Start() error = %v, want ErrStartupFailed", err)
	}
	var se *StartupError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a *StartupError", err)
	}
	if se.Reason != process.ReasonTimedOut {
		t.Errorf("Reason = %v, want %v", se.Reason, process.ReasonTimedOut)
	}
	if !strings.Contains(err.Error(), "Output:\nStarting RavenDB") {
		t.Errorf("error %q should embed the captured stdout", err.Error())
	}
	if elapsed > 5*time.Second {
		t.Errorf("Start() took %v, want roughly the startup timeout", elapsed)
	}
}

func TestStart_ExitsBeforeAnnouncing(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, `echo "loading configuration"
echo "Address already in use" >&2
exit 3`)
	cfg := testConfig(t, host)

	_, err := Start(context.Background(), cfg)
	if !errors.Is(err, ErrStartupFailed) {
		t.Fatalf("Start() error = %v, want ErrStartupFailed", err)
	}
	var se *StartupError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a *StartupError", err)
	}
	if se.Reason != process.ReasonEndOfStream {
		t.Errorf("Reason = %v, want %v", se.Reason, process.ReasonEndOfStream)
	}

	msg := err.Error()
	for _, want := range []string{
		"Unable to start the RavenDB Server",
		"Error:\nAddress already in use",
		"Output:\nloading configuration",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not contain %q", msg, want)
		}
	}
	if strings.Index(msg, "Error:") > strings.Index(msg, "Output:") {
		t.Error("stderr section should precede stdout section")
	}
}

func TestStart_EmptyAddress(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, `echo "Server available on: "
read cmd
exit 0`)
	cfg := testConfig(t, host)

	p, err := Start(context.Background(), cfg)
	if !errors.Is(err, ErrStartupFailed) {
		t.Fatalf("Start() error = %v, want ErrStartupFailed", err)
	}
	if p != nil {
		t.Error("Start() returned a process for an empty address")
	}
	var se *StartupError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not a *StartupError", err)
	}
	if se.Reason != process.ReasonSignaled {
		t.Errorf("Reason = %v, want %v", se.Reason, process.ReasonSignaled)
	}
	if msg := err.Error(); !strings.Contains(msg, "server announced an empty address") {
		t.Errorf("error %q does not name the empty address", msg)
	}
}

func TestStart_ContextCanceled(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, `read cmd
exit 0`)
	cfg := testConfig(t, host)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Start(ctx, cfg)
	if !errors.Is(err, ErrStartupFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Start() error = %v, want ErrStartupFailed and context.Canceled", err)
	}
}

func TestStart_ServerNotFound(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, announceAndWait)
	cfg := testConfig(t, host)
	cfg.ServerDir = t.TempDir()

	if _, err := Start(context.Background(), cfg); !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("Start() error = %v, want ErrServerNotFound", err)
	}
}

func TestStart_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := Start(context.Background(), Config{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Start() error = %v, want ErrInvalidConfig", err)
	}
}

func TestStart_AdminThumbprint(t *testing.T) {
	t.Parallel()

	host := newFakeHost(t, announceAndWait)
	cfg := testConfig(t, host)
	clientPEM, _ := writeClientPEM(t, false)
	cfg.Security = &SecurityConfig{CertificatePath: "server.pfx", ClientCertificatePath: clientPEM}

	thumbprint, err := CertificateThumbprint(clientPEM)
	if err != nil {
		t.Fatalf("CertificateThumbprint() error = %v", err)
	}

	p, err := Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(p.Close)

	args := host.args(t)
	for _, want := range []string{
		"--Security.Certificate.Path=server.pfx",
		"--Security.WellKnownCertificates.Admin=" + thumbprint,
		"--ServerUrl=https://127.0.0.1:0",
	} {
		if !slices.Contains(args, want) {
			t.Errorf("args %q do not contain %q", args, want)
		}
	}
}

func TestStartupError_Unwrap(t *testing.T) {
	t.Parallel()

	plain := &StartupError{Reason: process.ReasonTimedOut}
	if !errors.Is(plain, ErrStartupFailed) {
		t.Error("StartupError should match ErrStartupFailed")
	}
	if strings.Contains(plain.Error(), "Error:") || strings.Contains(plain.Error(), "Output:") {
		t.Errorf("empty sections should be omitted, got %q", plain.Error())
	}
}
