// Package lint runs golangci-lint and reduces its JSON report to
// diagnostics.
package lint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/devtools-mcp/internal/query"
	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// Group is the tool policy group for lint.
const Group = "lint"

// Binary is the golangci-lint executable name.
const Binary = "golangci-lint"

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

var printer = message.NewPrinter(language.English)

// Diagnostic is one linter finding.
type Diagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

// Report is the full lint result. Success means no error-severity findings.
type Report struct {
	Success     bool         `json:"success"`
	Total       int          `json:"total"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// MarshalJSON emits an empty diagnostics array rather than null.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	if r.Diagnostics == nil {
		r.Diagnostics = []Diagnostic{}
	}
	return json.Marshal(plain(r))
}

// Summary drops the diagnostics and keeps where they are.
type Summary struct {
	Success       bool           `json:"success"`
	Total         int            `json:"total"`
	Errors        int            `json:"errors"`
	Warnings      int            `json:"warnings"`
	FileCount     int            `json:"file_count"`
	LinesAffected uint64         `json:"lines_affected"`
	ByLinter      map[string]int `json:"by_linter,omitempty"`
}

// Result binds Report to its summary and formatters.
var Result = compaction.NewResultType("lint",
	compaction.ProjectionFunc[Report, Summary](Project),
	Format, FormatSummary)

// issuesQuery flattens golangci-lint's Issues array. golangci-lint leaves
// Severity empty unless severity rules are configured.
const issuesQuery = `[
  (.Issues // [])[] | {
    file: (.Pos.Filename // ""),
    line: (.Pos.Line // 0),
    column: (.Pos.Column // 0),
    severity: ((.Severity // "") | ascii_downcase),
    rule: (.FromLinter // ""),
    message: (.Text // "")
  }
]`

var issuesProgram = query.MustCompile("lint issues", issuesQuery)

// Options selects what to lint. Paths must already have passed the
// flag-injection guard.
type Options struct {
	Dir   string
	Paths []string
}

// Linter runs golangci-lint through a runner.
type Linter struct {
	r runner.Runner
}

// New returns a Linter backed by r.
func New(r runner.Runner) *Linter {
	return &Linter{r: r}
}

// Run lints the selected paths. golangci-lint exits 1 when it reports
// findings, which is a result and not an error. The JSON report goes to
// stdout and the text report to stderr; the returned result carries the
// text report, which is what a terminal user would have read.
func (l *Linter) Run(ctx context.Context, opts Options) (Report, *runner.Result, error) {
	args := []string{"run", "--output.json.path=stdout", "--output.text.path=stderr"}
	args = append(args, opts.Paths...)
	cmd := runner.Command{Name: Binary, Args: args, Dir: opts.Dir}

	res, err := l.r.Run(ctx, cmd)
	if err != nil {
		return Report{}, nil, err
	}
	if err := runner.RequireExit(cmd, res, 0, 1); err != nil {
		return Report{}, nil, err
	}

	report, trailer, err := Parse(res.Stdout)
	if err != nil {
		if res.ExitCode != 0 {
			return Report{}, nil, runner.RequireExit(cmd, res)
		}
		return Report{}, nil, runner.Unexpected(cmd, err)
	}

	text := res.Stderr
	if trailer != "" {
		text = strings.TrimRight(text, "\n")
		if text != "" {
			text += "\n"
		}
		text += trailer + "\n"
	}
	baseline := &runner.Result{
		Stdout:    text,
		ExitCode:  res.ExitCode,
		Duration:  res.Duration,
		Truncated: res.Truncated,
	}
	return report, baseline, nil
}

var errNoReport = errors.New("no JSON report in output")

// Parse decodes the first JSON document in out and returns any text that
// follows it, such as the issue statistics.
func Parse(out string) (Report, string, error) {
	start := strings.IndexByte(out, '{')
	if start < 0 {
		return Report{}, "", errNoReport
	}
	dec := json.NewDecoder(strings.NewReader(out[start:]))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Report{}, "", fmt.Errorf("decode report: %w", err)
	}
	trailer := strings.TrimSpace(out[start+int(dec.InputOffset()):])

	diags, err := extract(doc)
	if err != nil {
		return Report{}, "", err
	}
	return newReport(diags), trailer, nil
}

func extract(doc any) ([]Diagnostic, error) {
	diags := []Diagnostic{}
	if err := query.Decode(issuesProgram, doc, &diags); err != nil {
		if errors.Is(err, query.ErrNoResult) {
			return nil, errNoReport
		}
		return nil, fmt.Errorf("extract issues: %w", err)
	}
	return diags, nil
}

func normalizeSeverity(s string) string {
	switch s {
	case "", "error", "err":
		return SeverityError
	case "warning", "warn":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func newReport(diags []Diagnostic) Report {
	r := Report{Diagnostics: diags}
	for i := range r.Diagnostics {
		d := &r.Diagnostics[i]
		d.Severity = normalizeSeverity(d.Severity)
		switch d.Severity {
		case SeverityError:
			r.Errors++
		case SeverityWarning:
			r.Warnings++
		}
	}
	r.Total = len(r.Diagnostics)
	r.Success = r.Errors == 0
	return r
}

// Project counts distinct files, distinct lines per file and findings per
// linter.
func Project(r Report) Summary {
	s := Summary{
		Success:  r.Success,
		Total:    r.Total,
		Errors:   r.Errors,
		Warnings: r.Warnings,
	}
	lines := map[string]*roaring.Bitmap{}
	for _, d := range r.Diagnostics {
		bm, ok := lines[d.File]
		if !ok {
			bm = roaring.New()
			lines[d.File] = bm
		}
		if d.Line > 0 {
			bm.Add(uint32(d.Line))
		}
		if s.ByLinter == nil {
			s.ByLinter = map[string]int{}
		}
		s.ByLinter[d.Rule]++
	}
	s.FileCount = len(lines)
	for _, bm := range lines {
		s.LinesAffected += bm.GetCardinality()
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, one)
	}
	return printer.Sprintf("%d %s", n, many)
}

func countsLine(total, errs, warns int) string {
	if total == 0 {
		return "no issues found"
	}
	return printer.Sprintf("%s (%s, %s)", plural(total, "problem", "problems"),
		plural(errs, "error", "errors"), plural(warns, "warning", "warnings"))
}

// Format renders findings grouped by file, in file order.
func Format(r Report) string {
	if r.Total == 0 {
		return "Lint: no issues found."
	}
	byFile := map[string][]Diagnostic{}
	var files []string
	for _, d := range r.Diagnostics {
		if _, ok := byFile[d.File]; !ok {
			files = append(files, d.File)
		}
		byFile[d.File] = append(byFile[d.File], d)
	}
	sort.Strings(files)

	var b strings.Builder
	b.WriteString("Lint: " + countsLine(r.Total, r.Errors, r.Warnings) + "\n")
	for _, f := range files {
		b.WriteString(f + "\n")
		for _, d := range byFile[f] {
			fmt.Fprintf(&b, "  %d:%d  %-7s  %s  (%s)\n", d.Line, d.Column, d.Severity, d.Message, d.Rule)
		}
	}
	return b.String()
}

// FormatSummary renders counts and the busiest linters.
func FormatSummary(s Summary) string {
	if s.Total == 0 {
		return "Lint: no issues found."
	}
	out := printer.Sprintf("Lint: %s across %s, %d lines affected",
		countsLine(s.Total, s.Errors, s.Warnings), plural(s.FileCount, "file", "files"), s.LinesAffected)
	linters := make([]string, 0, len(s.ByLinter))
	for name := range s.ByLinter {
		linters = append(linters, name)
	}
	slices.SortFunc(linters, func(a, b string) int {
		if d := s.ByLinter[b] - s.ByLinter[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	for _, name := range linters {
		out += printer.Sprintf("\n  %s: %d", name, s.ByLinter[name])
	}
	return out
}
