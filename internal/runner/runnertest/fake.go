// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/usestring/devtools-mcp/internal/runner"
)

// Response is the scripted outcome of one command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	// Err, when set, is returned instead of a result.
	Err error
}

// Fake answers commands from a table keyed by the command line
// (name and arguments joined by spaces). Unscripted commands fail with
// runner.ErrNotFound. It is safe for concurrent use.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []runner.Command
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// On scripts the response for a command line.
func (f *Fake) On(cmdline string, r Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = r
	return f
}

// Run implements runner.Runner.
func (f *Fake) Run(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cmd.String()
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	r, ok := f.responses[key]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: unscripted command %q", runner.ErrNotFound, key)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &runner.Result{
		Stdout:   r.Stdout,
		Stderr:   r.Stderr,
		ExitCode: r.ExitCode,
		Duration: r.Duration,
	}, nil
}

// Calls returns the command lines run so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}

// Called reports whether a command line starting with prefix was run.
func (f *Fake) Called(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// LastCommand returns the most recent command, or the zero Command.
func (f *Fake) LastCommand() runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return runner.Command{}
	}
	return f.calls[len(f.calls)-1]
}
