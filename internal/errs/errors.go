// Package errs defines the error kinds shared by the fingerprint, resolver,
// router and launcher packages.
package errs

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrIO           = errors.New("i/o error")
	ErrLaunchFailed = errors.New("launch failed")
)

// Error carries the failing operation and the path involved so that a log
// line is enough to diagnose it.
type Error struct {
	Kind error
	Op   string
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := e.Kind.Error()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Path != "" {
		s += fmt.Sprintf(" %q", e.Path)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NotFoundf(op, path, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Op: op, Path: path, Msg: fmt.Sprintf(format, args...)}
}

func LaunchFailedf(op, path string, cause error, format string, args ...any) error {
	return &Error{Kind: ErrLaunchFailed, Op: op, Path: path, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// FromFS classifies a filesystem error: missing paths become ErrNotFound,
// everything else ErrIO.
func FromFS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrIO
	if errors.Is(err, fs.ErrNotExist) {
		kind = ErrNotFound
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Kind returns the sentinel kind of err, or nil when err is not one of ours.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrIO, ErrLaunchFailed} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
