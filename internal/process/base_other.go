//go:build !linux

package process

import "os/exec"

// setParentDeathSignal is Linux only; elsewhere OnExit is the only guard
// against an orphaned server.
func setParentDeathSignal(*exec.Cmd) {}
