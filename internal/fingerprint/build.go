package fingerprint

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// UnknownSuffix replaces the numeric code when a digest could not be computed.
const UnknownSuffix = "unknown"

// VersionTriple is a semantic major.minor.patch version.
type VersionTriple struct {
	Major int
	Minor int
	Patch int
}

func (v VersionTriple) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion parses "major.minor.patch" with an optional leading "v".
// A fourth assembly-style component ("1.2.3.0") must be a number too but is
// otherwise ignored.
func ParseVersion(raw string) (VersionTriple, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	parts := strings.Split(s, ".")
	if len(parts) < 3 || len(parts) > 4 {
		return VersionTriple{}, fmt.Errorf("invalid version %q (expected major.minor.patch)", raw)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return VersionTriple{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", raw, p)
		}
		nums[i] = n
	}
	return VersionTriple{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// BuildIdentifier is a semantic version plus a content-derived suffix.
// The zero value of Code is meaningful; check Degraded before trusting it.
type BuildIdentifier struct {
	Version  VersionTriple
	Code     DigestCode
	Degraded bool
}

// String renders "major.minor.patch+NNN", or "major.minor.patch+unknown"
// when the identifier is degraded.
func (b BuildIdentifier) String() string {
	if b.Degraded {
		return b.Version.String() + "+" + UnknownSuffix
	}
	return fmt.Sprintf("%s+%03d", b.Version, int(b.Code))
}

// ComputeBuildIdentifier digests both files and combines the two codes.
//
// On failure the returned identifier is degraded (never zero) and the error
// describes which input failed; callers log it and carry on.
func (h *Hasher) ComputeBuildIdentifier(pathA, pathB string, v VersionTriple) (BuildIdentifier, error) {
	a, err := h.DigestCode(pathA)
	if err != nil {
		return BuildIdentifier{Version: v, Degraded: true}, fmt.Errorf("digesting %s: %w", pathA, err)
	}
	b, err := h.DigestCode(pathB)
	if err != nil {
		return BuildIdentifier{Version: v, Degraded: true}, fmt.Errorf("digesting %s: %w", pathB, err)
	}
	return BuildIdentifier{Version: v, Code: (a + b) % Modulus}, nil
}

// ComputeBuildIdentifier uses the default SHA-1 digest.
func ComputeBuildIdentifier(pathA, pathB string, v VersionTriple) (BuildIdentifier, error) {
	return NewHasher(DigestSHA1).ComputeBuildIdentifier(pathA, pathB, v)
}

// Identity holds the process's BuildIdentifier. The compute function runs at
// most once, on the first Get; concurrent callers block until it finishes
// and all observe the same value.
type Identity struct {
	get func() BuildIdentifier
}

// NewIdentity wraps compute so that it runs at most once.
func NewIdentity(compute func() BuildIdentifier) *Identity {
	return &Identity{get: sync.OnceValue(compute)}
}

// Get returns the identifier, computing it on first use.
func (i *Identity) Get() BuildIdentifier {
	return i.get()
}

// String implements fmt.Stringer for display.
func (i *Identity) String() string {
	return i.Get().String()
}
