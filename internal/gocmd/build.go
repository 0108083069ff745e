package gocmd

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// BuildDiagnostic is one compiler message. File is empty for messages
// without a source position.
type BuildDiagnostic struct {
	Package string `json:"package,omitempty"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// Build is the full result of go build.
type Build struct {
	Success     bool              `json:"success"`
	Total       int               `json:"total"`
	Diagnostics []BuildDiagnostic `json:"diagnostics,omitempty"`
}

// BuildSummary keeps the outcome and the distinct files with errors.
type BuildSummary struct {
	Success bool     `json:"success"`
	Total   int      `json:"total"`
	Files   []string `json:"files,omitempty"`
}

// BuildResult binds Build to its summary and formatters.
var BuildResult = compaction.NewResultType("go_build",
	compaction.ProjectionFunc[Build, BuildSummary](ProjectBuild),
	FormatBuild, FormatBuildSummary)

// BuildOptions selects what to build. Packages must already have passed the
// flag-injection guard.
type BuildOptions struct {
	Dir      string
	Packages []string
}

// Build runs "go build" on the selected packages.
func (g *Go) Build(ctx context.Context, opts BuildOptions) (Build, *runner.Result, error) {
	args := append([]string{"build"}, packagesOrDefault(opts.Packages)...)
	cmd, res, err := g.run(ctx, opts.Dir, args...)
	if err != nil {
		return Build{}, nil, err
	}

	b := ParseBuild(res.Stderr, res.ExitCode == 0)
	if !b.Success && b.Total == 0 {
		return Build{}, nil, runner.RequireExit(cmd, res)
	}
	return b, res, nil
}

// diagRe matches "path/file.go:12:5: message"; the column is optional.
var diagRe = regexp.MustCompile(`^(.+?\.go):(\d+)(?::(\d+))?: (.+)$`)

// ParseBuild parses compiler output. Lines that carry no position become
// message-only diagnostics; tab-indented lines continue the previous message.
// Module download progress is not a diagnostic.
func ParseBuild(out string, success bool) Build {
	b := Build{Success: success, Diagnostics: []BuildDiagnostic{}}
	pkg := ""
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case strings.HasPrefix(line, "# "):
			pkg = strings.TrimPrefix(line, "# ")
			continue
		case strings.HasPrefix(line, "\t") && len(b.Diagnostics) > 0:
			last := &b.Diagnostics[len(b.Diagnostics)-1]
			last.Message += "\n" + strings.TrimPrefix(line, "\t")
			continue
		case strings.HasSuffix(line, ": too many errors") || line == "too many errors":
			continue
		case strings.HasPrefix(line, "go: downloading ") || strings.HasPrefix(line, "go: finding "):
			continue
		}

		d := BuildDiagnostic{Package: pkg, Message: line}
		if m := diagRe.FindStringSubmatch(line); m != nil {
			d.File = strings.TrimPrefix(m[1], "./")
			d.Line, _ = strconv.Atoi(m[2])
			if m[3] != "" {
				d.Column, _ = strconv.Atoi(m[3])
			}
			d.Message = m[4]
		}
		b.Diagnostics = append(b.Diagnostics, d)
	}
	b.Total = len(b.Diagnostics)
	return b
}

// ProjectBuild keeps the distinct files in first-seen order.
func ProjectBuild(b Build) BuildSummary {
	s := BuildSummary{Success: b.Success, Total: b.Total}
	for _, d := range b.Diagnostics {
		if d.File != "" && !slices.Contains(s.Files, d.File) {
			s.Files = append(s.Files, d.File)
		}
	}
	return s
}

// FormatBuild renders every diagnostic in compiler style.
func FormatBuild(b Build) string {
	if b.Success && b.Total == 0 {
		return "Build succeeded."
	}
	var sb strings.Builder
	if b.Success {
		sb.WriteString("Build succeeded with " + plural(b.Total, "message", "messages") + ":\n")
	} else {
		sb.WriteString("Build failed with " + plural(b.Total, "error", "errors") + ":\n")
	}
	for _, d := range b.Diagnostics {
		switch {
		case d.File == "":
			sb.WriteString(indent(d.Message, "  ") + "\n")
		case d.Column > 0:
			fmt.Fprintf(&sb, "  %s:%d:%d: %s\n", d.File, d.Line, d.Column, d.Message)
		default:
			fmt.Fprintf(&sb, "  %s:%d: %s\n", d.File, d.Line, d.Message)
		}
	}
	return sb.String()
}

// FormatBuildSummary renders the error count and affected files.
func FormatBuildSummary(s BuildSummary) string {
	if s.Success && s.Total == 0 {
		return "Build succeeded."
	}
	verb := "failed"
	if s.Success {
		verb = "succeeded"
	}
	line := fmt.Sprintf("Build %s: %s", verb, plural(s.Total, "message", "messages"))
	if len(s.Files) > 0 {
		line += " in " + plural(len(s.Files), "file", "files") + ":\n" + strings.Join(s.Files, "\n")
	}
	return line
}
