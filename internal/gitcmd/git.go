// Package gitcmd runs git and parses its machine-readable output into typed
// records, each with a compact projection and text formatters.
package gitcmd

import (
	"context"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/devtools-mcp/internal/runner"
)

// Group is the tool policy group for every git tool.
const Group = "git"

// printer renders counts with thousands separators.
var printer = message.NewPrinter(language.English)

// Git runs git commands through a runner.
type Git struct {
	r runner.Runner
}

// New returns a Git backed by r.
func New(r runner.Runner) *Git {
	return &Git{r: r}
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (runner.Command, *runner.Result, error) {
	cmd := runner.Command{Name: "git", Args: args, Dir: dir}
	res, err := g.r.Run(ctx, cmd)
	return cmd, res, err
}

// splitLines splits output into lines without the trailing empty line.
func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, one)
	}
	return printer.Sprintf("%d %s", n, many)
}
