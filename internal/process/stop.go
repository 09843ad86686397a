package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ShutdownCommand is written to the child's stdin to request a graceful exit.
const ShutdownCommand = "shutdown no-confirmation\n"

// DefaultStopTimeout is the graceful shutdown timeout used when Close has to
// stop a process that was not stopped explicitly.
const DefaultStopTimeout = 30 * time.Second

// StopMode describes how a process ended up stopped.
type StopMode int

const (
	// StopNone means Stop has not been called since the last Start.
	StopNone StopMode = iota
	// StopNoop means the process was never started or had already exited.
	StopNoop
	// StopGraceful means the process exited after the shutdown command.
	StopGraceful
	// StopForced means the process had to be killed.
	StopForced
)

// String returns the metric label for the mode.
func (m StopMode) String() string {
	switch m {
	case StopNoop:
		return "noop"
	case StopGraceful:
		return "graceful"
	case StopForced:
		return "forced"
	default:
		return "none"
	}
}

// drainDone reads from the done channel with the given timeout as an upper
// bound. Returns true and the cmd.Wait error if the channel delivered in
// time, or false and a nil error if the timeout elapsed.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

// stopWithDone implements the graceful-then-forced shutdown sequence using a
// pre-existing done channel that already has a goroutine calling cmd.Wait.
//
// Shutdown flow:
//  1. Write ShutdownCommand to stdin and close it.
//  2. Wait up to timeout for the process to exit.
//  3. Kill the process and wait for exit without bound.
//
// Errors from every phase are joined. Failing to write the command does not
// skip the wait, since closing stdin alone makes most servers exit.
func stopWithDone(proc *os.Process, stdin io.WriteCloser, done <-chan error, timeout time.Duration, name string) (StopMode, error) {
	if proc == nil {
		return StopNoop, nil
	}
	if done == nil {
		return StopNoop, fmt.Errorf("%s: done channel must not be nil", name)
	}

	var errs []error
	if stdin != nil {
		if _, err := io.WriteString(stdin, ShutdownCommand); err != nil {
			errs = append(errs, fmt.Errorf("%s: write shutdown command: %w", name, err))
		}
		if err := stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("%s: close stdin: %w", name, err))
		}
	}

	if ok, waitErr := drainDone(done, timeout); ok {
		errs = append(errs, expectSignalExit(waitErr, name))
		return StopGraceful, errors.Join(errs...)
	}

	errs = append(errs, fmt.Errorf("%s: did not exit within %s after shutdown command", name, timeout))
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		errs = append(errs, fmt.Errorf("%s: kill: %w", name, err))
	}
	errs = append(errs, expectSignalExit(<-done, name))
	return StopForced, errors.Join(errs...)
}

// expectSignalExit interprets an error from cmd.Wait after a stop request.
// Exit errors caused by SIGTERM or SIGKILL are expected and treated as
// successful stops.
func expectSignalExit(err error, name string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			sig := status.Signal()
			if sig == syscall.SIGTERM || sig == syscall.SIGKILL {
				return nil
			}
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}

// Stopper is a process that can be stopped, reports how it stopped and
// releases its pipes on Close.
type Stopper interface {
	Stop(timeout time.Duration) error
	LastStop() StopMode
	Close()
}

// Shutdown stops *p, releases its pipes and sets *p to nil. Close and the
// nil-out run even when Stop fails. It returns the mode of the stop along
// with the Stop error; a nil p or *p returns StopNoop.
//
// P is constrained to a pointer to E so that *p can be compared to nil
// without reflection. E is inferred:
//
//	var proc *ravenserver.Process
//	mode, err := process.Shutdown(&proc, 30*time.Second)
func Shutdown[P interface {
	*E
	Stopper
}, E any](p *P, timeout time.Duration) (StopMode, error) {
	if p == nil || *p == nil {
		return StopNoop, nil
	}
	defer func() {
		(*p).Close()
		*p = nil
	}()
	err := (*p).Stop(timeout)
	return (*p).LastStop(), err
}
