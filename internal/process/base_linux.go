//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// setParentDeathSignal asks the kernel to send SIGTERM to the child when the
// thread that started it exits, so a server never outlives a crashed host.
func setParentDeathSignal(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Pdeathsig = syscall.SIGTERM
}
