//go:build unix

package launch

import (
	"os/exec"
	"syscall"
)

// configureDetached puts the viewer in its own session so it has no
// controlling terminal and survives the host's process group.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
