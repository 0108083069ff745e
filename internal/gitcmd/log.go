package gitcmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// Field and record separators in the log format. Neither can appear in
// commit metadata.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

const logFormat = "--format=%H%x1f%h%x1f%an%x1f%ae%x1f%aI%x1f%s%x1f%b%x1e"

// DefaultLogCount is the number of commits returned when none is requested.
const DefaultLogCount = 20

// Commit is one log entry. Date is the author date in strict ISO 8601.
type Commit struct {
	Hash      string `json:"hash"`
	ShortHash string `json:"short_hash"`
	Author    string `json:"author"`
	Email     string `json:"email"`
	Date      string `json:"date"`
	Subject   string `json:"subject"`
	Body      string `json:"body,omitempty"`
}

// Log is the full commit list.
type Log struct {
	Total   int      `json:"total"`
	Commits []Commit `json:"commits,omitempty"`
}

// LogSummary keeps one "<short hash> <subject>" line per commit.
type LogSummary struct {
	Total   int      `json:"total"`
	Oneline []string `json:"oneline,omitempty"`
}

// LogResult binds Log to its summary and formatters.
var LogResult = compaction.NewResultType("git_log",
	compaction.ProjectionFunc[Log, LogSummary](ProjectLog),
	FormatLog, FormatLogSummary)

// LogOptions selects commits. Ref and Path must already have passed the
// flag-injection guard.
type LogOptions struct {
	Dir      string
	Ref      string
	Path     string
	MaxCount int
}

// Log runs git log with a delimited format.
func (g *Git) Log(ctx context.Context, opts LogOptions) (Log, *runner.Result, error) {
	count := opts.MaxCount
	if count <= 0 {
		count = DefaultLogCount
	}
	args := []string{"log", "--max-count=" + strconv.Itoa(count), logFormat}
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}
	if opts.Path != "" {
		args = append(args, "--", opts.Path)
	}

	cmd, res, err := g.run(ctx, opts.Dir, args...)
	if err != nil {
		return Log{}, nil, err
	}
	if err := runner.RequireExit(cmd, res); err != nil {
		return Log{}, nil, err
	}
	l, err := ParseLog(res.Stdout)
	if err != nil {
		return Log{}, nil, runner.Unexpected(cmd, err)
	}
	return l, res, nil
}

// ParseLog parses output produced with the delimited log format.
func ParseLog(out string) (Log, error) {
	l := Log{Commits: []Commit{}}
	for _, rec := range strings.Split(out, recordSep) {
		rec = strings.TrimLeft(rec, "\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		f := strings.Split(rec, fieldSep)
		if len(f) != 7 {
			return Log{}, fmt.Errorf("commit record has %d fields, want 7", len(f))
		}
		l.Commits = append(l.Commits, Commit{
			Hash:      f[0],
			ShortHash: f[1],
			Author:    f[2],
			Email:     f[3],
			Date:      f[4],
			Subject:   f[5],
			Body:      strings.TrimSpace(f[6]),
		})
	}
	l.Total = len(l.Commits)
	return l, nil
}

// ProjectLog reduces commits to one-line entries.
func ProjectLog(l Log) LogSummary {
	s := LogSummary{Total: l.Total}
	if len(l.Commits) > 0 {
		s.Oneline = make([]string, len(l.Commits))
		for i, c := range l.Commits {
			s.Oneline[i] = c.ShortHash + " " + c.Subject
		}
	}
	return s
}

// FormatLog renders every commit with its body.
func FormatLog(l Log) string {
	if l.Total == 0 {
		return "No commits found."
	}
	var b strings.Builder
	b.WriteString(plural(l.Total, "commit", "commits") + ":\n")
	for _, c := range l.Commits {
		fmt.Fprintf(&b, "\ncommit %s\nAuthor: %s <%s>\nDate:   %s\n\n    %s\n", c.Hash, c.Author, c.Email, c.Date, c.Subject)
		if c.Body != "" {
			for _, line := range strings.Split(c.Body, "\n") {
				b.WriteString("    " + line + "\n")
			}
		}
	}
	return b.String()
}

// FormatLogSummary renders one line per commit.
func FormatLogSummary(s LogSummary) string {
	if s.Total == 0 {
		return "No commits found."
	}
	return plural(s.Total, "commit", "commits") + ":\n" + strings.Join(s.Oneline, "\n")
}
