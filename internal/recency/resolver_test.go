package recency

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spoilerviewer/internal/errs"
)

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func mkdirAt(t *testing.T, path string, mtime time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestMostRecentSubdirectory_ReturnsNewest(t *testing.T) {
	parent := t.TempDir()
	mkdirAt(t, filepath.Join(parent, "d1"), base)
	d2 := mkdirAt(t, filepath.Join(parent, "d2"), base.Add(time.Hour))

	got, ok, err := MostRecentSubdirectory(parent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d2, got.Path)
	assert.Equal(t, "d2", got.Name)
	assert.True(t, got.ModTime.Equal(base.Add(time.Hour)))
}

func TestMostRecentSubdirectory_NameOrderDoesNotMatter(t *testing.T) {
	parent := t.TempDir()
	newest := mkdirAt(t, filepath.Join(parent, "aaa"), base.Add(2*time.Hour))
	mkdirAt(t, filepath.Join(parent, "zzz"), base)
	mkdirAt(t, filepath.Join(parent, "mmm"), base.Add(time.Hour))

	got, ok, err := MostRecentSubdirectory(parent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newest, got.Path)
}

func TestMostRecentSubdirectory_TiesBrokenByName(t *testing.T) {
	parent := t.TempDir()
	mkdirAt(t, filepath.Join(parent, "b"), base)
	a := mkdirAt(t, filepath.Join(parent, "a"), base)
	mkdirAt(t, filepath.Join(parent, "c"), base)

	for i := 0; i < 10; i++ {
		got, ok, err := MostRecentSubdirectory(parent)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, a, got.Path)
	}
}

func TestMostRecentSubdirectory_IgnoresFiles(t *testing.T) {
	parent := t.TempDir()
	older := mkdirAt(t, filepath.Join(parent, "older"), base)
	f := filepath.Join(parent, "newer-file.json")
	require.NoError(t, os.WriteFile(f, []byte("{}"), 0o644))
	later := base.Add(24 * time.Hour)
	require.NoError(t, os.Chtimes(f, later, later))

	got, ok, err := MostRecentSubdirectory(parent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, older, got.Path)
}

func TestMostRecentSubdirectory_EmptyIsAbsentNotError(t *testing.T) {
	parent := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(parent, "only-a-file"), nil, 0o644))

	_, ok, err := MostRecentSubdirectory(parent)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMostRecentSubdirectory_MissingParentIsNotFound(t *testing.T) {
	_, _, err := MostRecentSubdirectory(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMostRecentSubdirectory_FileParentIsNotFound(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))

	_, _, err := MostRecentSubdirectory(f)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMostRecentSubdirectory_FollowsSymlinkedDirectories(t *testing.T) {
	parent := t.TempDir()
	target := mkdirAt(t, filepath.Join(t.TempDir(), "real"), base.Add(time.Hour))
	mkdirAt(t, filepath.Join(parent, "plain"), base)
	link := filepath.Join(parent, "linked")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, ok, err := MostRecentSubdirectory(parent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, link, got.Path)
}

func TestDescend_TwoLevels(t *testing.T) {
	root := t.TempDir()
	mkdirAt(t, filepath.Join(root, "2024-01-01", "09-00-00"), base)
	mkdirAt(t, filepath.Join(root, "2024-01-02", "08-00-00"), base.Add(23*time.Hour))
	leaf := mkdirAt(t, filepath.Join(root, "2024-01-02", "10-00-00"), base.Add(25*time.Hour))
	mkdirAt(t, filepath.Join(root, "2024-01-01"), base)
	mkdirAt(t, filepath.Join(root, "2024-01-02"), base.Add(25*time.Hour))

	got, ok, err := Descend(root, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, leaf, got.Path)
}

func TestDescend_AbsentAtSecondLevel(t *testing.T) {
	root := t.TempDir()
	mkdirAt(t, filepath.Join(root, "2024-01-02"), base)

	_, ok, err := Descend(root, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDescend_RejectsZeroDepth(t *testing.T) {
	_, _, err := Descend(t.TempDir(), 0)
	assert.Error(t, err)
}
