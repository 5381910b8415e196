package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	ExitSuccess           = 0
	ExitActionFailed      = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// Flags is the raw flag state shared by every command.
type Flags struct {
	ConfigPath    string
	Verbose       bool
	JSONLogs      bool
	PrimaryDir    string
	SecondaryRoot string
	Viewer        string
	Runtime       string
	Modules       []string
	TracePath     string
	AppVersion    string
}

// InvocationError carries the exit code a failure maps to.
type InvocationError struct {
	ExitCode int
	Message  string
	Err      error
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InvocationError) Unwrap() error { return e.Err }

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

func configError(err error) error {
	return &InvocationError{ExitCode: ExitConfigError, Err: err}
}

func actionFailed(msg string, err error) error {
	return &InvocationError{ExitCode: ExitActionFailed, Message: msg, Err: err}
}

func internalError(err error) error {
	return &InvocationError{ExitCode: ExitInternalError, Err: err}
}

// ExitCode extracts a semantic exit code from a command error. Errors that
// are not ours come from flag and argument parsing.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInternalError
	}
	return ExitInvalidInvocation
}

// cleanPath canonicalizes an optional path flag; empty stays empty.
func cleanPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", nil
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", invalidInvocationf("invalid path %q: %v", p, err)
	}
	return abs, nil
}
