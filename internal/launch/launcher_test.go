package launch

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"spoilerviewer/internal/errs"
)

func writeTarget(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(`{"ok":true}`), 0o644))
	return p
}

// writeViewerScript creates a shell script that copies its last argument
// into out, proving the argument arrived unmodified.
func writeViewerScript(t *testing.T, dir, out string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script viewer requires a unix shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(dir, "viewer.sh")
	body := "#!/bin/sh\nfor last; do :; done\nprintf '%s' \"$last\" > '" + out + "'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script
}

func TestLaunchViewer_MissingViewerIsLaunchFailed(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	target := writeTarget(t, dir, "RawSpoiler.json")

	l := New("", nil, zaptest.NewLogger(t))
	err := l.LaunchViewer(filepath.Join(dir, "HKSpoilerViewer.jar"), target)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrLaunchFailed)
	assert.Contains(t, err.Error(), "HKSpoilerViewer.jar")
}

func TestLaunchViewer_ViewerDirectoryIsLaunchFailed(t *testing.T) {
	dir := t.TempDir()
	target := writeTarget(t, dir, "ctx.json")

	err := New("", nil, nil).LaunchViewer(dir, target)
	assert.ErrorIs(t, err, errs.ErrLaunchFailed)
}

func TestLaunchViewer_MissingRuntimeIsLaunchFailed(t *testing.T) {
	dir := t.TempDir()
	viewer := writeTarget(t, dir, "viewer.jar")
	target := writeTarget(t, dir, "ctx.json")

	err := New("definitely-not-a-real-runtime-binary", []string{"-jar"}, nil).LaunchViewer(viewer, target)
	assert.ErrorIs(t, err, errs.ErrLaunchFailed)
}

func TestLaunchViewer_NonExecutableViewerIsLaunchFailed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	dir := t.TempDir()
	viewer := filepath.Join(dir, "viewer.bin")
	require.NoError(t, os.WriteFile(viewer, []byte("not a program"), 0o644))
	target := writeTarget(t, dir, "ctx.json")

	err := New("", nil, nil).LaunchViewer(viewer, target)
	assert.ErrorIs(t, err, errs.ErrLaunchFailed)
}

func TestLaunchViewer_VanishedTargetIsNotFound(t *testing.T) {
	dir := t.TempDir()
	viewer := writeTarget(t, dir, "viewer.jar")

	err := New("", nil, nil).LaunchViewer(viewer, filepath.Join(dir, "2024-01-02", "ctx.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.NotErrorIs(t, err, errs.ErrLaunchFailed)
}

func TestLaunchViewer_StartsDetachedWithLiteralArguments(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "received.txt")
	viewer := writeViewerScript(t, dir, out)
	target := writeTarget(t, dir, "odd name; $(echo pwned) & more.json")

	require.NoError(t, New("", nil, zaptest.NewLogger(t)).LaunchViewer(viewer, target))

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(out)
		return err == nil && string(b) == target
	}, 5*time.Second, 20*time.Millisecond)
}

func TestLaunchViewer_RuntimeReceivesArtifactThenTarget(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "received.txt")
	viewer := writeViewerScript(t, dir, out)
	target := writeTarget(t, dir, "RawSpoiler.json")

	require.NoError(t, New("sh", nil, nil).LaunchViewer(viewer, target))

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(out)
		return err == nil && string(b) == target
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCommand_ArgumentLayout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	l := New("sh", []string{"-e"}, nil)
	cmd, err := l.Command("/opt/viewer.jar", "/data/ctx.json")
	require.NoError(t, err)
	assert.Equal(t, "sh", filepath.Base(cmd.Args[0]))
	assert.Equal(t, []string{"-e", "/opt/viewer.jar", "/data/ctx.json"}, cmd.Args[1:])
	assert.Nil(t, cmd.Stdout)
	assert.Nil(t, cmd.Stderr)

	direct, err := New("", nil, nil).Command("/opt/viewer", "/data/ctx.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/viewer", "/data/ctx.json"}, direct.Args)
}

func TestLaunchViewer_RelativeViewerResolvesAgainstWorkingDir(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "received.txt")
	writeViewerScript(t, dir, out)
	// A local file named like a PATH program must not hand the target to
	// the PATH binary.
	require.NoError(t, os.Rename(filepath.Join(dir, "viewer.sh"), filepath.Join(dir, "sh")))
	target := writeTarget(t, dir, "RawSpoiler.json")
	t.Chdir(dir)

	require.NoError(t, New("", nil, nil).LaunchViewer("sh", "RawSpoiler.json"))
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(out)
		return err == nil && string(b) == target
	}, 5*time.Second, 20*time.Millisecond)

	cmd, err := New("", nil, nil).Command("sh", "RawSpoiler.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sh"), cmd.Path)
	assert.Equal(t, []string{filepath.Join(dir, "sh"), target}, cmd.Args)
}

func TestLaunchViewer_ReapsExitedViewer(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "received.txt")
	viewer := writeViewerScript(t, dir, out)
	target := writeTarget(t, dir, "ctx.json")

	core, logs := observer.New(zapcore.DebugLevel)
	require.NoError(t, New("", nil, zap.New(core)).LaunchViewer(viewer, target))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("viewer exited").Len() == 1
	}, 5*time.Second, 20*time.Millisecond)
}
