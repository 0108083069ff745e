// Package gocmd runs the Go toolchain and parses build diagnostics and
// "go test -json" event streams.
package gocmd

import (
	"context"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/devtools-mcp/internal/runner"
)

// Group is the tool policy group for every Go toolchain tool.
const Group = "go"

var printer = message.NewPrinter(language.English)

// DefaultPackages is the package pattern used when none is given.
var DefaultPackages = []string{"./..."}

// Go runs go commands through a runner.
type Go struct {
	r runner.Runner
}

// New returns a Go backed by r.
func New(r runner.Runner) *Go {
	return &Go{r: r}
}

func (g *Go) run(ctx context.Context, dir string, args ...string) (runner.Command, *runner.Result, error) {
	cmd := runner.Command{Name: "go", Args: args, Dir: dir}
	res, err := g.r.Run(ctx, cmd)
	return cmd, res, err
}

func packagesOrDefault(pkgs []string) []string {
	if len(pkgs) == 0 {
		return DefaultPackages
	}
	return pkgs
}

func plural(n int, one, many string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, one)
	}
	return printer.Sprintf("%d %s", n, many)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
