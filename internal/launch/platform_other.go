//go:build !unix && !windows

package launch

import "os/exec"

func configureDetached(*exec.Cmd) {}
