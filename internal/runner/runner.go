// Package runner executes external command-line programs and captures their
// output, exit code and wall time.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultTimeout        = 2 * time.Minute
	DefaultMaxConcurrent  = 4
	DefaultMaxOutputBytes = 8 << 20
)

var (
	// ErrNotFound indicates the program is not installed or not on PATH.
	ErrNotFound = errors.New("command not found")
	// ErrTimeout indicates the program did not finish within its timeout.
	ErrTimeout = errors.New("command timed out")
)

// Command describes one program invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory. Empty means the server's own.
	Dir string
	// Timeout overrides the runner default when positive.
	Timeout time.Duration
	// Env entries ("KEY=value") are appended to the server environment.
	Env []string
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the captured outcome of a finished program. A non-zero exit code
// is reported here, not as an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	// Truncated is set when either stream exceeded the capture limit.
	Truncated bool
}

// Output returns stdout followed by stderr. This is the raw text a caller
// would have seen in a terminal.
func (r *Result) Output() string {
	switch {
	case r.Stderr == "":
		return r.Stdout
	case r.Stdout == "":
		return r.Stderr
	case strings.HasSuffix(r.Stdout, "\n"):
		return r.Stdout + r.Stderr
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// DurationMs returns the wall time in milliseconds.
func (r *Result) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// Runner runs commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Options configures an Exec runner.
type Options struct {
	Timeout        time.Duration
	MaxConcurrent  int
	MaxOutputBytes int
}

// Exec runs commands as local subprocesses. At most MaxConcurrent run at once;
// further calls wait for a slot or for their context to end.
type Exec struct {
	timeout   time.Duration
	maxOutput int
	sem       *semaphore.Weighted
	lookPath  func(string) (string, error)
}

// NewExec creates an Exec runner.
func NewExec(opts Options) *Exec {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = DefaultMaxOutputBytes
	}
	return &Exec{
		timeout:   opts.Timeout,
		maxOutput: opts.MaxOutputBytes,
		sem:       semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		lookPath:  exec.LookPath,
	}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, errors.New("runner: empty command name")
	}
	path, err := e.lookPath(cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cmd.Name)
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting to run %s: %w", cmd, err)
	}
	defer e.sem.Release(1)

	timeout := e.timeout
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := &cappedBuffer{limit: e.maxOutput}
	stderr := &cappedBuffer{limit: e.maxOutput}

	c := exec.CommandContext(runCtx, path, cmd.Args...) //nolint:gosec // positional values pass AssertNoFlagInjection
	c.Dir = cmd.Dir
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = time.Second
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	start := time.Now()
	err = c.Run()
	elapsed := time.Since(start)

	if err != nil {
		// The parent context ending is the caller's doing, not a timeout.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("running %s: %w", cmd, ctxErr)
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, cmd)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("running %s: %w", cmd, err)
		}
	}

	return &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  c.ProcessState.ExitCode(),
		Duration:  elapsed,
		Truncated: stdout.truncated || stderr.truncated,
	}, nil
}
