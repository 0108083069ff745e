// Package npm runs "npm audit" and reduces its JSON report to a list of
// vulnerable packages.
package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/devtools-mcp/internal/query"
	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// Group is the tool policy group for npm.
const Group = "npm"

var printer = message.NewPrinter(language.English)

// Severities in descending order.
var Severities = []string{"critical", "high", "moderate", "low", "info"}

// Counts holds the number of vulnerable packages per severity.
type Counts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

func (c *Counts) add(severity string) {
	switch severity {
	case "critical":
		c.Critical++
	case "high":
		c.High++
	case "moderate":
		c.Moderate++
	case "low":
		c.Low++
	default:
		c.Info++
	}
}

// Vulnerability is one vulnerable package. Via names the advisories or the
// dependencies through which it is vulnerable.
type Vulnerability struct {
	Name         string   `json:"name"`
	Severity     string   `json:"severity"`
	Range        string   `json:"range"`
	FixAvailable bool     `json:"fix_available"`
	Direct       bool     `json:"direct"`
	Via          []string `json:"via,omitempty"`
}

// Audit is the full result of npm audit.
type Audit struct {
	Success         bool            `json:"success"`
	Total           int             `json:"total"`
	Counts          Counts          `json:"counts"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
}

// AuditSummary keeps the counts and the vulnerable package names, most
// severe first.
type AuditSummary struct {
	Success        bool     `json:"success"`
	Total          int      `json:"total"`
	SeverityCounts Counts   `json:"severity_counts"`
	Packages       []string `json:"packages,omitempty"`
}

// AuditResult binds Audit to its summary and formatters.
var AuditResult = compaction.NewResultType("npm_audit",
	compaction.ProjectionFunc[Audit, AuditSummary](ProjectAudit),
	FormatAudit, FormatAuditSummary)

// vulnerabilitiesQuery reads the npm 7+ report. via holds advisory objects
// for direct advisories and package names for transitive ones.
const vulnerabilitiesQuery = `[
  (.vulnerabilities // {}) | to_entries[] | .value | {
    name: (.name // ""),
    severity: (.severity // "info"),
    range: (.range // ""),
    fix_available: ((.fixAvailable // false) | if type == "boolean" then . else true end),
    direct: (.isDirect // false),
    via: [(.via // [])[] | if type == "string" then . else (.title // .name // "") end]
  }
]`

// errorQuery reads the error npm prints for failures such as a missing
// lockfile. Older npm versions print a bare string.
const errorQuery = `.error | select(. != null) |
  if type == "string" then .
  elif type == "object" then "\(.code // "error"): \(.summary // "")"
  else error("error field is a \(type)") end`

var (
	vulnerabilitiesProgram = query.MustCompile("npm vulnerabilities", vulnerabilitiesQuery)
	errorProgram           = query.MustCompile("npm error", errorQuery)
)

// AuditOptions selects the project and the minimum severity to report.
type AuditOptions struct {
	Dir string
	// Level is passed to --audit-level when set.
	Level      string
	Production bool
}

// Npm runs npm through a runner.
type Npm struct {
	r runner.Runner
}

// New returns an Npm backed by r.
func New(r runner.Runner) *Npm {
	return &Npm{r: r}
}

// Audit runs "npm audit --json". npm exits 1 when it finds vulnerabilities,
// which is a result and not an error.
func (n *Npm) Audit(ctx context.Context, opts AuditOptions) (Audit, *runner.Result, error) {
	args := []string{"audit", "--json"}
	if opts.Level != "" {
		args = append(args, "--audit-level="+opts.Level)
	}
	if opts.Production {
		args = append(args, "--omit=dev")
	}
	cmd := runner.Command{Name: "npm", Args: args, Dir: opts.Dir}

	res, err := n.r.Run(ctx, cmd)
	if err != nil {
		return Audit{}, nil, err
	}

	audit, err := ParseAudit(res.Stdout)
	var reported *reportedError
	switch {
	case errors.As(err, &reported):
		return Audit{}, nil, &runner.ExitError{Command: cmd.String(), ExitCode: res.ExitCode, Stderr: reported.msg}
	case err != nil:
		if exitErr := runner.RequireExit(cmd, res); exitErr != nil {
			return Audit{}, nil, exitErr
		}
		return Audit{}, nil, runner.Unexpected(cmd, err)
	}
	if err := runner.RequireExit(cmd, res, 0, 1); err != nil {
		return Audit{}, nil, err
	}
	return audit, res, nil
}

type reportedError struct{ msg string }

func (e *reportedError) Error() string { return e.msg }

// ParseAudit parses an npm audit JSON report.
func ParseAudit(out string) (Audit, error) {
	var doc any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &doc); err != nil {
		return Audit{}, fmt.Errorf("decode audit report: %w", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return Audit{}, errors.New("audit report is not an object")
	}

	v, ok, err := errorProgram.First(doc)
	if err != nil {
		return Audit{}, fmt.Errorf("extract error: %w", err)
	}
	if ok {
		if s, ok := v.(string); ok {
			return Audit{}, &reportedError{msg: s}
		}
	}

	vulns := []Vulnerability{}
	if err := query.Decode(vulnerabilitiesProgram, doc, &vulns); err != nil {
		return Audit{}, fmt.Errorf("extract vulnerabilities: %w", err)
	}
	return newAudit(vulns), nil
}

func severityRank(s string) int {
	if i := slices.Index(Severities, s); i >= 0 {
		return i
	}
	return len(Severities)
}

func newAudit(vulns []Vulnerability) Audit {
	slices.SortStableFunc(vulns, func(a, b Vulnerability) int {
		if d := severityRank(a.Severity) - severityRank(b.Severity); d != 0 {
			return d
		}
		return strings.Compare(a.Name, b.Name)
	})
	a := Audit{Vulnerabilities: vulns}
	for _, v := range vulns {
		a.Counts.add(v.Severity)
	}
	a.Total = len(vulns)
	a.Success = a.Total == 0
	return a
}

// ProjectAudit keeps the counts and package names.
func ProjectAudit(a Audit) AuditSummary {
	s := AuditSummary{Success: a.Success, Total: a.Total, SeverityCounts: a.Counts}
	for _, v := range a.Vulnerabilities {
		s.Packages = append(s.Packages, v.Name)
	}
	return s
}

func countsLine(total int, c Counts) string {
	if total == 0 {
		return "found 0 vulnerabilities"
	}
	parts := []string{}
	for _, sev := range Severities {
		n := map[string]int{
			"critical": c.Critical, "high": c.High, "moderate": c.Moderate, "low": c.Low, "info": c.Info,
		}[sev]
		if n > 0 {
			parts = append(parts, printer.Sprintf("%d %s", n, sev))
		}
	}
	noun := "vulnerabilities"
	if total == 1 {
		noun = "vulnerability"
	}
	return printer.Sprintf("%d %s (%s)", total, noun, strings.Join(parts, ", "))
}

// FormatAudit renders one line per vulnerable package.
func FormatAudit(a Audit) string {
	if a.Total == 0 {
		return "npm audit: found 0 vulnerabilities."
	}
	var b strings.Builder
	b.WriteString("npm audit: " + countsLine(a.Total, a.Counts) + "\n")
	for _, v := range a.Vulnerabilities {
		fmt.Fprintf(&b, "  %-8s %s", v.Severity, v.Name)
		if v.Range != "" {
			b.WriteString(" " + v.Range)
		}
		if v.FixAvailable {
			b.WriteString(" [fix available]")
		}
		if len(v.Via) > 0 {
			b.WriteString("\n           via " + strings.Join(v.Via, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAuditSummary renders the counts and package names.
func FormatAuditSummary(s AuditSummary) string {
	if s.Total == 0 {
		return "npm audit: found 0 vulnerabilities."
	}
	out := "npm audit: " + countsLine(s.Total, s.SeverityCounts)
	if len(s.Packages) > 0 {
		out += "\n  " + strings.Join(s.Packages, ", ")
	}
	return out
}
