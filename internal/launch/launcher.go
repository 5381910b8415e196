// Package launch starts the external viewer process and forgets about it.
package launch

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"spoilerviewer/internal/errs"
)

// Launcher starts a viewer artifact against a data file.
//
// When Runtime is set the command line is
//
//	Runtime RuntimeArgs... <viewer> <target>
//
// (for a jar: java -jar viewer.jar target.json). Otherwise the viewer is
// executed directly with the target as its only argument.
type Launcher struct {
	Runtime     string
	RuntimeArgs []string

	logger *zap.Logger
}

// New creates a Launcher. A nil logger is replaced with a no-op logger.
func New(runtime string, runtimeArgs []string, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	args := make([]string, len(runtimeArgs))
	copy(args, runtimeArgs)
	return &Launcher{Runtime: strings.TrimSpace(runtime), RuntimeArgs: args, logger: logger}
}

// Command builds the process description without starting it. Arguments
// are passed to the OS verbatim; no shell is involved. Both paths are made
// absolute first, so a bare viewer name never goes through a PATH lookup.
func (l *Launcher) Command(viewerPath, targetPath string) (*exec.Cmd, error) {
	viewerPath, err := absPath("launch", viewerPath)
	if err != nil {
		return nil, err
	}
	if targetPath, err = absPath("open target", targetPath); err != nil {
		return nil, err
	}

	program := viewerPath
	var args []string
	if l.Runtime != "" {
		resolved, err := exec.LookPath(l.Runtime)
		if err != nil {
			return nil, errs.LaunchFailedf("launch", l.Runtime, err, "runtime not found")
		}
		program = resolved
		args = append(args, l.RuntimeArgs...)
		args = append(args, viewerPath)
	}
	args = append(args, targetPath)

	cmd := exec.Command(program, args...)
	// nil streams are connected to the null device, so no copying
	// goroutines are attached to the child.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	configureDetached(cmd)
	return cmd, nil
}

// LaunchViewer starts the viewer and returns as soon as the OS has created
// the process. A background goroutine reaps the child when it exits; its
// exit status is discarded and nothing is cancelled or timed out.
//
// Fails with:
//   - errs.ErrLaunchFailed when the viewer artifact or runtime is missing
//     or the OS refuses to start the process
//   - errs.ErrNotFound when the target file is missing at launch time
func (l *Launcher) LaunchViewer(viewerPath, targetPath string) error {
	viewerPath, err := absPath("launch", viewerPath)
	if err != nil {
		return err
	}
	info, err := os.Stat(viewerPath)
	if err != nil {
		return errs.LaunchFailedf("launch", viewerPath, err, "viewer artifact unavailable")
	}
	if info.IsDir() {
		return errs.LaunchFailedf("launch", viewerPath, nil, "viewer artifact is a directory")
	}

	if _, err := os.Stat(targetPath); err != nil {
		return errs.FromFS("open target", targetPath, err)
	}

	cmd, err := l.Command(viewerPath, targetPath)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return errs.LaunchFailedf("launch", cmd.Path, err, "failed to start viewer")
	}

	pid := cmd.Process.Pid
	go func() {
		err := cmd.Wait()
		l.logger.Debug("viewer exited", zap.Int("pid", pid), zap.Error(err))
	}()
	l.logger.Debug("viewer started",
		zap.Int("pid", pid),
		zap.String("program", cmd.Path),
		zap.Strings("args", cmd.Args[1:]),
	)
	return nil
}

func absPath(op, p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errs.FromFS(op, p, err)
	}
	return abs, nil
}
