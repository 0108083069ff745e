package runner

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrFailed indicates the program ran but could not do its job.
	ErrFailed = errors.New("command failed")
	// ErrUnexpectedOutput indicates output that could not be parsed.
	ErrUnexpectedOutput = errors.New("unexpected command output")
)

// ExitError reports a program that exited with a status its caller does not
// accept.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	}
	if i := strings.IndexByte(msg, '\n'); i > 0 {
		msg = msg[:i]
	}
	return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, msg)
}

func (e *ExitError) Unwrap() error { return ErrFailed }

// RequireExit returns an *ExitError unless res exited with one of ok.
// With no ok codes only 0 is accepted.
func RequireExit(cmd Command, res *Result, ok ...int) error {
	if len(ok) == 0 {
		ok = []int{0}
	}
	if slices.Contains(ok, res.ExitCode) {
		return nil
	}
	return &ExitError{Command: cmd.String(), ExitCode: res.ExitCode, Stderr: res.Stderr}
}

// Unexpected wraps a parse failure of cmd's output.
func Unexpected(cmd Command, err error) error {
	return fmt.Errorf("%w from %s: %w", ErrUnexpectedOutput, cmd, err)
}
