// Package source decides which file a viewer should open for a given
// data source.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"spoilerviewer/internal/errs"
	"spoilerviewer/internal/recency"
)

// Mode selects one of the two mutually exclusive data sources.
type Mode string

const (
	// ModePrimary reads RawSpoiler.json from a directory the host already
	// tracks as the most recent output.
	ModePrimary Mode = "raw"
	// ModeSecondary reads ctx.json from the newest subdirectory of the newest
	// subdirectory of the secondary root.
	ModeSecondary Mode = "ctx"
)

const (
	PrimaryFilename   = "RawSpoiler.json"
	SecondaryFilename = "ctx.json"

	// secondaryDepth is the number of recency levels between the secondary
	// root and the directory holding ctx.json (<date>/<time>/ctx.json).
	secondaryDepth = 2
)

// Filename is the file expected at the resolved location for m.
func (m Mode) Filename() string {
	if m == ModeSecondary {
		return SecondaryFilename
	}
	return PrimaryFilename
}

// ParseMode accepts "raw"/"primary" and "ctx"/"secondary", case-insensitively.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "raw", "primary", strings.ToLower(PrimaryFilename):
		return ModePrimary, nil
	case "ctx", "secondary", strings.ToLower(SecondaryFilename):
		return ModeSecondary, nil
	default:
		return "", fmt.Errorf("invalid source mode %q (expected raw|ctx)", raw)
	}
}

// Router holds the two candidate roots supplied by the host.
type Router struct {
	PrimaryDir    string
	SecondaryRoot string
}

// NewRouter creates a Router.
func NewRouter(primaryDir, secondaryRoot string) *Router {
	return &Router{PrimaryDir: primaryDir, SecondaryRoot: secondaryRoot}
}

// Resolve returns the absolute path of the file to open for mode.
func (r *Router) Resolve(mode Mode) (string, error) {
	return ResolveTargetPath(mode, r.PrimaryDir, r.SecondaryRoot, mode.Filename())
}

// ResolveTargetPath maps a mode to a target file path.
//
// The primary mode joins knownPrimaryDir and expectedFilename without
// touching the filesystem. The secondary mode descends two levels of
// most-recent subdirectories under secondaryRoot and fails with
// errs.ErrNotFound when either level is empty.
//
// Existence of the final file is not checked here; the launcher does that
// at launch time.
func ResolveTargetPath(mode Mode, knownPrimaryDir, secondaryRoot, expectedFilename string) (string, error) {
	switch mode {
	case ModePrimary:
		if strings.TrimSpace(knownPrimaryDir) == "" {
			return "", errs.NotFoundf("resolve primary", "", "no recent output directory is known")
		}
		return absJoin(knownPrimaryDir, expectedFilename)
	case ModeSecondary:
		if strings.TrimSpace(secondaryRoot) == "" {
			return "", errs.NotFoundf("resolve secondary", "", "secondary root is not configured")
		}
		entry, ok, err := recency.Descend(secondaryRoot, secondaryDepth)
		if err != nil {
			return "", fmt.Errorf("resolving secondary source: %w", err)
		}
		if !ok {
			return "", errs.NotFoundf("resolve secondary", secondaryRoot, "no recent %s to open", expectedFilename)
		}
		return absJoin(entry.Path, expectedFilename)
	default:
		return "", fmt.Errorf("unknown source mode %q", string(mode))
	}
}

func absJoin(dir, name string) (string, error) {
	p, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return "", errs.FromFS("resolve", dir, err)
	}
	return p, nil
}
