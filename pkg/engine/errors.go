package engine

import (
	"fmt"
	"strings"
)

// CommandError is the single failure kind raised by host mutations: an
// external command exited non-zero. It carries the captured output streams of
// the failing operation so the driver can surface them verbatim.
type CommandError struct {
	// Cmd is the full command line that failed.
	Cmd string

	// Stdout and Stderr are the captured output streams.
	Stdout string
	Stderr string

	// Err is the underlying execution error.
	Err error
}

// NewCommandError builds a CommandError from a failed command invocation.
func NewCommandError(argv []string, stdout, stderr string, err error) *CommandError {
	return &CommandError{
		Cmd:    strings.Join(argv, " "),
		Stdout: stdout,
		Stderr: stderr,
		Err:    err,
	}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command %q failed", e.Cmd)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg = fmt.Sprintf("%s (stderr: %s)", msg, s)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *CommandError) Unwrap() error {
	return e.Err
}
