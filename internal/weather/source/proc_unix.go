//go:build unix

package source

import (
	"os/exec"
	"syscall"
)

// setProcessGroup runs the child in its own process group and makes
// cancellation kill the whole group, so helpers the fetcher started do not
// outlive it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
