package ravenserver

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/giantswarm/ravenembed/internal/fxversion"
	"github.com/giantswarm/ravenembed/internal/process"
	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrStartupFailed is returned when the server does not announce its address
// before the startup deadline or before its output ends.
const ErrStartupFailed = sentinel.Error("unable to start the RavenDB Server")

// AddressPrefix starts the stdout line on which the server announces the
// URL it is listening on.
const AddressPrefix = "Server available on: "

const processName = "raven-server"

// stderrDrainTimeout bounds how long a failed startup waits for the rest of
// stderr after the server has been stopped.
const stderrDrainTimeout = 2 * time.Second

// Compile-time interface satisfaction check.
var _ process.Stopper = (*Process)(nil)

// StartupError describes a failed startup. It wraps ErrStartupFailed.
type StartupError struct {
	Reason process.StopReason
	Output string // stdout observed during startup
	Errors string // stderr observed during startup
	Cause  error  // set when startup was interrupted by the caller
}

func (e *StartupError) Error() string {
	var b strings.Builder
	b.WriteString("Unable to start the RavenDB Server")
	switch {
	case e.Cause != nil:
		fmt.Fprintf(&b, ": %v", e.Cause)
	case e.Reason == process.ReasonTimedOut:
		b.WriteString(": startup timed out")
	case e.Reason == process.ReasonEndOfStream:
		b.WriteString(": server output ended before the address was announced")
	case e.Reason == process.ReasonSignaled:
		// The address line matched but carried no address.
		b.WriteString(": server announced an empty address")
	}
	b.WriteString("\n")
	if e.Errors != "" {
		b.WriteString("Error:\n")
		b.WriteString(e.Errors)
		b.WriteString("\n")
	}
	if e.Output != "" {
		b.WriteString("Output:\n")
		b.WriteString(e.Output)
		b.WriteString("\n")
	}
	return b.String()
}

// Unwrap returns ErrStartupFailed and, when present, the interrupting cause.
func (e *StartupError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrStartupFailed, e.Cause}
	}
	return []error{ErrStartupFailed}
}

// Process is a running server. It is safe for concurrent use; the exit hook
// may stop it from the signal goroutine.
type Process struct {
	mu         sync.Mutex
	base       process.BaseProcess
	url        string
	cancelHook func()
	log        *slog.Logger
}

// Start launches the server described by cfg and waits until it announces
// its address. On failure the half-started process is shut down and the
// error carries the captured output.
//
// ctx bounds runtime discovery and the wait for the address; it does not
// bound the lifetime of the server.
func Start(ctx context.Context, cfg Config) (*Process, error) {
	started := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger()

	serverBinary, err := ResolveServerBinary(cfg.ServerDir)
	if err != nil {
		return nil, err
	}

	fx, err := fxversion.Resolve(ctx, cfg.DotNetPath, cfg.FrameworkVersion)
	if err != nil {
		return nil, fmt.Errorf("resolve runtime version: %w", err)
	}

	var thumbprint string
	if cfg.Security != nil && cfg.Security.ClientCertificatePath != "" {
		if thumbprint, err = CertificateThumbprint(cfg.Security.ClientCertificatePath); err != nil {
			return nil, err
		}
	}

	args := BuildArgs(cfg, Invocation{
		ServerBinary:     serverBinary,
		FrameworkVersion: fx,
		AdminThumbprint:  thumbprint,
		ParentPID:        cfg.ParentPID,
	})

	p := &Process{
		base: process.NewBaseProcess(processName, log),
		log:  log,
	}
	if err := p.base.Start(exec.Command(args[0], args[1:]...)); err != nil { //nolint:gosec // G204: argv is built from caller configuration
		return nil, fmt.Errorf("%w: %w", ErrStartupFailed, err)
	}
	log.Debug("starting server", "pid", p.base.Pid(), "binary", serverBinary, "runtime", fx)

	if cfg.ExitHook {
		timeout := cfg.ShutdownTimeout
		hooked := p
		p.mu.Lock()
		p.cancelHook = process.OnExit(func() {
			_, _ = process.Shutdown(&hooked, timeout)
		})
		p.mu.Unlock()
	}

	stdout := process.NewOutputReader(p.base.Stdout(), func(line string) {
		log.Debug("server output", "line", line)
	})
	stderr := process.NewOutputReader(p.base.Stderr(), func(line string) {
		log.Debug("server error output", "line", line)
	})

	var url string
	res, err := stdout.Collect(ctx, process.CollectConfig{
		Started:      started,
		MaxDuration:  cfg.StartupTimeout,
		PollInterval: cfg.PollInterval,
	}, func(line string) bool {
		rest, ok := strings.CutPrefix(line, AddressPrefix)
		if !ok {
			return false
		}
		url = strings.TrimRight(rest, " \t\r\n")
		return true
	})
	stdout.Release()

	if err == nil && url != "" {
		stderr.Release()
		p.url = url
		log.Debug("server announced address", "url", url, "elapsed", time.Since(started))
		return p, nil
	}

	// Stop first so stderr reaches EOF promptly, then collect what the
	// server reported.
	if stopErr := p.Stop(cfg.ShutdownTimeout); stopErr != nil {
		log.Debug("failed to shut down server after failed startup", "error", stopErr)
	}
	errRes, _ := stderr.Collect(context.WithoutCancel(ctx), process.CollectConfig{
		Started:      time.Now(),
		MaxDuration:  stderrDrainTimeout,
		PollInterval: cfg.PollInterval,
	}, nil)
	stderr.Release()
	p.Close()

	return nil, &StartupError{
		Reason: res.Reason,
		Output: res.Text(),
		Errors: errRes.Text(),
		Cause:  err,
	}
}

// URL returns the address the server announced.
func (p *Process) URL() string {
	return p.url
}

// Pid returns the operating system process ID of the runtime host, or 0 once
// the process has been stopped.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base.Pid()
}

// Exited returns a channel closed when the server exits, or nil once the
// process has been stopped.
func (p *Process) Exited() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base.Exited()
}

// Stop shuts the server down: the shutdown command is sent on stdin and the
// server is killed if it has not exited within timeout. Stop is a no-op if
// the server already exited.
func (p *Process) Stop(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.base.IsStarted() {
		p.log.Debug("shutting down server", "pid", p.base.Pid(), "timeout", timeout)
	}
	return p.base.Stop(timeout)
}

// LastStop reports how the most recent Stop ended.
func (p *Process) LastStop() process.StopMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.base.LastStop()
}

// Close releases the output pipes and unregisters the exit hook. It stops the
// server first if Stop was not called.
func (p *Process) Close() {
	p.mu.Lock()
	cancel := p.cancelHook
	p.cancelHook = nil
	p.base.Close()
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
