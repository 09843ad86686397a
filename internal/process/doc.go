// Package process provides utilities for managing external process lifecycle.
//
// BaseProcess starts a child with piped stdio and stops it by writing the
// shutdown command, killing it if it does not exit in time. Shutdown stops
// and releases any Stopper in one step. OutputReader scans a child's output
// under a deadline, and OnExit runs cleanup when the parent receives a
// termination signal.
package process
