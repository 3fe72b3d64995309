package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ExecutionErrorCode categorizes engine failures.
type ExecutionErrorCode string

const (
	// ErrCodeExitStatus indicates the engine exited with a non-zero status.
	ErrCodeExitStatus ExecutionErrorCode = "EXIT_STATUS"

	// ErrCodeStartFailed indicates the engine process could not be run.
	ErrCodeStartFailed ExecutionErrorCode = "START_FAILED"

	// ErrCodeCancelled indicates the engine was killed because the run was
	// cancelled or timed out.
	ErrCodeCancelled ExecutionErrorCode = "CANCELLED"
)

// stderrTailLines bounds how much engine output an error message carries.
const stderrTailLines = 5

// ExecutionError reports an engine run that did not succeed.
type ExecutionError struct {
	Code     ExecutionErrorCode
	Command  string
	ExitCode int
	Stderr   string // last few lines of engine stderr
	Err      error
}

func (e *ExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: engine %q", e.Code, e.Command)
	switch e.Code {
	case ErrCodeExitStatus:
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	default:
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "\nstderr:\n%s", e.Stderr)
	}
	return b.String()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExitStatusError builds an ExecutionError for a finished run with a
// non-zero exit status.
func NewExitStatusError(command string, exec *Execution) *ExecutionError {
	return &ExecutionError{
		Code:     ErrCodeExitStatus,
		Command:  command,
		ExitCode: exec.ExitCode,
		Stderr:   tail(string(exec.Stderr), stderrTailLines),
	}
}

// NewRunError builds an ExecutionError for a run that never produced an exit
// status.
func NewRunError(command string, err error) *ExecutionError {
	code := ErrCodeStartFailed
	if IsCancelled(err) {
		code = ErrCodeCancelled
	}
	return &ExecutionError{Code: code, Command: command, ExitCode: -1, Err: err}
}

// IsCancelled reports whether err stems from a cancelled or expired context.
func IsCancelled(err error) bool {
	var ee *ExecutionError
	if errors.As(err, &ee) && ee.Code == ErrCodeCancelled {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
