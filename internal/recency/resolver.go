// Package recency picks the most recently modified subdirectory of a
// directory, optionally descending several levels.
package recency

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"spoilerviewer/internal/errs"
)

// DirectoryEntry is a read-only observation of a directory owned by some
// other tool.
type DirectoryEntry struct {
	// Path is the absolute path of the directory.
	Path    string
	Name    string
	ModTime time.Time
}

// MostRecentSubdirectory lists the immediate child directories of parent
// and returns the one with the latest modification time.
//
// Ordering is explicit and does not depend on the order the OS returns
// entries in:
//  1. modification time, newest first
//  2. name, ascending, to break ties
//
// ok is false when parent has no subdirectories; that is not an error.
// Fails with errs.ErrNotFound when parent is missing or not a directory.
// Children that vanish between listing and stat are skipped.
func MostRecentSubdirectory(parent string) (entry DirectoryEntry, ok bool, err error) {
	abs, err := filepath.Abs(parent)
	if err != nil {
		return DirectoryEntry{}, false, errs.FromFS("resolve", parent, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return DirectoryEntry{}, false, errs.FromFS("stat", abs, err)
	}
	if !info.IsDir() {
		return DirectoryEntry{}, false, errs.NotFoundf("stat", abs, "not a directory")
	}

	children, err := os.ReadDir(abs)
	if err != nil {
		return DirectoryEntry{}, false, errs.FromFS("list", abs, err)
	}

	dirs := make([]DirectoryEntry, 0, len(children))
	for _, c := range children {
		d, isDir := observe(abs, c)
		if isDir {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 {
		return DirectoryEntry{}, false, nil
	}

	sort.Slice(dirs, func(i, j int) bool {
		if !dirs[i].ModTime.Equal(dirs[j].ModTime) {
			return dirs[i].ModTime.After(dirs[j].ModTime)
		}
		return dirs[i].Name < dirs[j].Name
	})
	return dirs[0], true, nil
}

// observe stats a child entry, following symlinks so that a linked
// directory counts as a directory.
func observe(parent string, c fs.DirEntry) (DirectoryEntry, bool) {
	p := filepath.Join(parent, c.Name())
	var (
		info fs.FileInfo
		err  error
	)
	if c.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(p)
	} else {
		info, err = c.Info()
	}
	if err != nil || !info.IsDir() {
		return DirectoryEntry{}, false
	}
	return DirectoryEntry{Path: p, Name: c.Name(), ModTime: info.ModTime()}, true
}

// Descend applies MostRecentSubdirectory depth times starting at root.
// ok is false as soon as any level has no subdirectories.
func Descend(root string, depth int) (entry DirectoryEntry, ok bool, err error) {
	if depth < 1 {
		return DirectoryEntry{}, false, fmt.Errorf("descend %q: depth must be at least 1, got %d", root, depth)
	}
	current := root
	for level := 0; level < depth; level++ {
		entry, ok, err = MostRecentSubdirectory(current)
		if err != nil || !ok {
			return DirectoryEntry{}, false, err
		}
		current = entry.Path
	}
	return entry, true, nil
}
