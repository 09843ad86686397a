package process

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/giantswarm/ravenembed/internal/sentinel"
)

// ErrAlreadyStarted is returned when Start is called on a process that is
// already running. Callers must Stop the process before starting it again.
const ErrAlreadyStarted = sentinel.Error("process already started")

// ErrNilCmd is returned when Start is called with a nil *exec.Cmd.
const ErrNilCmd = sentinel.Error("cmd must not be nil")

// ErrEmptyCmdPath is returned when Start is called with an empty cmd.Path.
const ErrEmptyCmdPath = sentinel.Error("cmd.Path must not be empty")

// BaseProcess provides common process lifecycle management for a child that
// is driven through its standard streams: stdout and stderr are exposed as
// readers and stdin accepts the graceful shutdown command.
//
// BaseProcess is not safe for concurrent use. Callers must serialize access
// to Start, Stop, Close and IsStarted. The readers returned by Stdout and
// Stderr may be consumed from other goroutines.
type BaseProcess struct {
	cmd      *exec.Cmd
	waitDone <-chan error    // receives cmd.Wait result; started once in Start
	exited   <-chan struct{} // closed when process exits; readable by multiple goroutines
	stdin    io.WriteCloser
	stdout   *os.File
	stderr   *os.File
	name     string       // Process name for logging (e.g., "raven-server")
	log      *slog.Logger // Logger for operational messages
	lastStop StopMode
}

// NewBaseProcess creates a BaseProcess with the given name and logger. If
// logger is nil, slog.Default() is used. Panics if name is empty, since an
// empty name produces confusing error messages throughout the process
// lifecycle.
func NewBaseProcess(name string, logger *slog.Logger) BaseProcess {
	if name == "" {
		panic("ravenembed: process name must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return BaseProcess{name: name, log: logger}
}

// Start wires stdin, stdout and stderr pipes to cmd and starts it. The cmd
// must already have its Path and Args set.
//
// Stdout and stderr use os.Pipe rather than cmd.StdoutPipe so the single
// cmd.Wait goroutine never closes a reader that is still being scanned. The
// read ends stay open until Close.
func (b *BaseProcess) Start(cmd *exec.Cmd) (err error) {
	if cmd == nil {
		return ErrNilCmd
	}
	if cmd.Path == "" {
		return ErrEmptyCmdPath
	}
	if b.cmd != nil {
		return ErrAlreadyStarted
	}

	setParentDeathSignal(cmd)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create %s stdout pipe: %w", b.name, err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return fmt.Errorf("create %s stderr pipe: %w", b.name, err)
	}
	// The child holds its own copies of the write ends after Start. The
	// parent's copies must be closed or the readers never see EOF.
	defer closeAll(stdoutW, stderrW)
	defer func() {
		if err != nil {
			closeAll(stdoutR, stderrR)
		}
	}()

	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create %s stdin pipe: %w", b.name, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s process: %w", b.name, err)
	}

	b.cmd = cmd
	b.stdin = stdin
	b.stdout = stdoutR
	b.stderr = stderrR
	b.lastStop = StopNone

	// cmd.Wait must be called exactly once per started process. The done
	// channel is consumed once by Stop; exited is a broadcast that any number
	// of goroutines can select on.
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()
	b.waitDone = done
	b.exited = exited

	return nil
}

// Stop terminates the process. If the process already exited it is a no-op.
// Otherwise the shutdown command is written to stdin, stdin is closed and
// Stop waits up to timeout for a natural exit before killing the process and
// waiting for it without bound.
//
// After Stop returns, IsStarted reports false regardless of whether the stop
// succeeded. The returned error describes what went wrong; callers on
// teardown paths log it rather than propagate it.
func (b *BaseProcess) Stop(timeout time.Duration) error {
	if b.cmd == nil || b.cmd.Process == nil {
		b.reset(StopNoop)
		return nil
	}

	select {
	case <-b.exited:
		b.log.Debug("process already exited", "process", b.name, "pid", b.cmd.Process.Pid)
		b.reset(StopNoop)
		return nil
	default:
	}

	pid := b.cmd.Process.Pid
	mode, err := stopWithDone(b.cmd.Process, b.stdin, b.waitDone, timeout, b.name)
	if err != nil {
		b.log.Debug("process stop reported an error",
			"process", b.name, "pid", pid, "mode", mode, "error", err)
	}
	b.reset(mode)
	return err
}

func (b *BaseProcess) reset(mode StopMode) {
	b.cmd = nil
	b.waitDone = nil
	b.exited = nil
	b.stdin = nil
	b.lastStop = mode
}

// Close releases the stdout and stderr readers. If the process is still
// running (Stop was not called first), Close logs a warning and stops it with
// DefaultStopTimeout. Any goroutine blocked reading Stdout or Stderr observes
// an error and returns.
func (b *BaseProcess) Close() {
	if b.cmd != nil {
		b.log.Warn("process.Close called without Stop; stopping automatically",
			"process", b.name)
		_ = b.Stop(DefaultStopTimeout)
	}
	closeAll(b.stdout, b.stderr)
	b.stdout = nil
	b.stderr = nil
}

// Logger returns the logger used by this process.
func (b *BaseProcess) Logger() *slog.Logger {
	return b.log
}

// Name returns the process name used in logs and errors.
func (b *BaseProcess) Name() string {
	return b.name
}

// Pid returns the operating system process ID, or 0 if not started.
func (b *BaseProcess) Pid() int {
	if b.cmd == nil || b.cmd.Process == nil {
		return 0
	}
	return b.cmd.Process.Pid
}

// Stdout returns the read end of the child's standard output.
func (b *BaseProcess) Stdout() io.Reader {
	return b.stdout
}

// Stderr returns the read end of the child's standard error.
func (b *BaseProcess) Stderr() io.Reader {
	return b.stderr
}

// Exited returns a channel that is closed when the process exits. It is safe
// to select on from any number of goroutines. Returns nil if the process has
// not been started or has already been stopped.
func (b *BaseProcess) Exited() <-chan struct{} {
	return b.exited
}

// IsStarted reports whether the process has been started and not yet stopped.
func (b *BaseProcess) IsStarted() bool {
	return b.cmd != nil
}

// LastStop reports how the most recent Stop ended.
func (b *BaseProcess) LastStop() StopMode {
	return b.lastStop
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
