package gitcmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// StatusEntry is one changed path. Index and Worktree hold the porcelain
// status letters; "." means unchanged on that side.
type StatusEntry struct {
	Path     string `json:"path"`
	OrigPath string `json:"orig_path,omitempty"`
	Index    string `json:"index"`
	Worktree string `json:"worktree"`
}

// Status is the full working tree state.
type Status struct {
	Branch    string        `json:"branch"`
	Upstream  string        `json:"upstream,omitempty"`
	Ahead     int           `json:"ahead"`
	Behind    int           `json:"behind"`
	Clean     bool          `json:"clean"`
	Staged    []StatusEntry `json:"staged,omitempty"`
	Modified  []StatusEntry `json:"modified,omitempty"`
	Untracked []string      `json:"untracked,omitempty"`
	Conflicts []string      `json:"conflicts,omitempty"`
	Stashes   int           `json:"stashes"`
}

// StatusSummary keeps the branch position and per-category counts.
type StatusSummary struct {
	Branch         string `json:"branch"`
	Ahead          int    `json:"ahead"`
	Behind         int    `json:"behind"`
	Clean          bool   `json:"clean"`
	StagedCount    int    `json:"staged_count"`
	ModifiedCount  int    `json:"modified_count"`
	UntrackedCount int    `json:"untracked_count"`
	ConflictCount  int    `json:"conflict_count"`
	StashCount     int    `json:"stash_count"`
}

// StatusResult binds Status to its summary and formatters.
var StatusResult = compaction.NewResultType("git_status",
	compaction.ProjectionFunc[Status, StatusSummary](ProjectStatus),
	FormatStatus, FormatStatusSummary)

// Status runs "git status --porcelain=v2 --branch" and "git stash list"
// concurrently in dir. The returned result combines both outputs.
func (g *Git) Status(ctx context.Context, dir string) (Status, *runner.Result, error) {
	var (
		statusCmd           runner.Command
		statusRes, stashRes *runner.Result
	)

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		cmd, res, err := g.run(egctx, dir, "status", "--porcelain=v2", "--branch")
		if err != nil {
			return err
		}
		if err := runner.RequireExit(cmd, res); err != nil {
			return err
		}
		statusCmd, statusRes = cmd, res
		return nil
	})
	eg.Go(func() error {
		cmd, res, err := g.run(egctx, dir, "stash", "list")
		if err != nil {
			return err
		}
		if err := runner.RequireExit(cmd, res); err != nil {
			return err
		}
		stashRes = res
		return nil
	})
	if err := eg.Wait(); err != nil {
		return Status{}, nil, err
	}

	st, err := ParseStatus(statusRes.Stdout, stashRes.Stdout)
	if err != nil {
		return Status{}, nil, runner.Unexpected(statusCmd, err)
	}
	return st, &runner.Result{
		Stdout:   statusRes.Stdout + stashRes.Stdout,
		Stderr:   statusRes.Stderr + stashRes.Stderr,
		ExitCode: statusRes.ExitCode,
		Duration: max(statusRes.Duration, stashRes.Duration),
	}, nil
}

// ParseStatus parses porcelain v2 output with branch headers, plus the
// output of "git stash list".
func ParseStatus(porcelain, stashList string) (Status, error) {
	st := Status{
		Staged:    []StatusEntry{},
		Modified:  []StatusEntry{},
		Untracked: []string{},
		Conflicts: []string{},
		Stashes:   len(splitLines(stashList)),
	}

	for _, line := range splitLines(porcelain) {
		if line == "" {
			continue
		}
		switch line[0] {
		case '#':
			if err := parseBranchHeader(&st, line); err != nil {
				return Status{}, err
			}
		case '1':
			f := strings.SplitN(line, " ", 9)
			if len(f) != 9 {
				return Status{}, fmt.Errorf("malformed changed entry %q", line)
			}
			addEntry(&st, f[1], f[8], "")
		case '2':
			f := strings.SplitN(line, " ", 10)
			if len(f) != 10 {
				return Status{}, fmt.Errorf("malformed rename entry %q", line)
			}
			path, orig, ok := strings.Cut(f[9], "\t")
			if !ok {
				return Status{}, fmt.Errorf("rename entry without original path %q", line)
			}
			addEntry(&st, f[1], path, orig)
		case 'u':
			f := strings.SplitN(line, " ", 11)
			if len(f) != 11 {
				return Status{}, fmt.Errorf("malformed unmerged entry %q", line)
			}
			st.Conflicts = append(st.Conflicts, f[10])
		case '?':
			st.Untracked = append(st.Untracked, strings.TrimPrefix(line, "? "))
		case '!':
			// Ignored files only appear with --ignored.
		default:
			return Status{}, fmt.Errorf("unknown porcelain line %q", line)
		}
	}

	st.Clean = len(st.Staged) == 0 && len(st.Modified) == 0 &&
		len(st.Untracked) == 0 && len(st.Conflicts) == 0
	return st, nil
}

func parseBranchHeader(st *Status, line string) error {
	key, value, _ := strings.Cut(strings.TrimPrefix(line, "# "), " ")
	switch key {
	case "branch.head":
		st.Branch = value
	case "branch.upstream":
		st.Upstream = value
	case "branch.ab":
		a, b, ok := strings.Cut(value, " ")
		if !ok {
			return fmt.Errorf("malformed branch.ab header %q", line)
		}
		ahead, err := strconv.Atoi(strings.TrimPrefix(a, "+"))
		if err != nil {
			return fmt.Errorf("branch.ab ahead: %w", err)
		}
		behind, err := strconv.Atoi(strings.TrimPrefix(b, "-"))
		if err != nil {
			return fmt.Errorf("branch.ab behind: %w", err)
		}
		st.Ahead, st.Behind = ahead, behind
	}
	return nil
}

func addEntry(st *Status, xy, path, orig string) {
	if len(xy) != 2 {
		xy = ".."
	}
	e := StatusEntry{Path: path, OrigPath: orig, Index: xy[:1], Worktree: xy[1:]}
	if e.Index != "." {
		st.Staged = append(st.Staged, e)
	}
	if e.Worktree != "." {
		st.Modified = append(st.Modified, e)
	}
}

// ProjectStatus reduces a status to counts.
func ProjectStatus(st Status) StatusSummary {
	return StatusSummary{
		Branch:         st.Branch,
		Ahead:          st.Ahead,
		Behind:         st.Behind,
		Clean:          st.Clean,
		StagedCount:    len(st.Staged),
		ModifiedCount:  len(st.Modified),
		UntrackedCount: len(st.Untracked),
		ConflictCount:  len(st.Conflicts),
		StashCount:     st.Stashes,
	}
}

var statusWords = map[string]string{
	"M": "modified",
	"A": "added",
	"D": "deleted",
	"R": "renamed",
	"C": "copied",
	"T": "type changed",
}

func describeCode(code string) string {
	if w, ok := statusWords[code]; ok {
		return w
	}
	return code
}

func branchLine(branch, upstream string, ahead, behind int) string {
	if branch == "" {
		branch = "(unknown)"
	}
	var b strings.Builder
	b.WriteString("On branch " + branch)
	var parts []string
	if upstream != "" {
		parts = append(parts, "tracking "+upstream)
	}
	if ahead > 0 {
		parts = append(parts, printer.Sprintf("ahead %d", ahead))
	}
	if behind > 0 {
		parts = append(parts, printer.Sprintf("behind %d", behind))
	}
	if len(parts) > 0 {
		b.WriteString(" (" + strings.Join(parts, ", ") + ")")
	}
	return b.String()
}

// FormatStatus renders every entry.
func FormatStatus(st Status) string {
	var b strings.Builder
	b.WriteString(branchLine(st.Branch, st.Upstream, st.Ahead, st.Behind))
	b.WriteByte('\n')

	if st.Clean {
		b.WriteString("Working tree clean.\n")
	}
	writeEntries := func(title string, entries []StatusEntry, code func(StatusEntry) string) {
		if len(entries) == 0 {
			return
		}
		printer.Fprintf(&b, "%s (%d):\n", title, len(entries))
		for _, e := range entries {
			if e.OrigPath != "" {
				fmt.Fprintf(&b, "  %-9s %s <- %s\n", describeCode(code(e)), e.Path, e.OrigPath)
				continue
			}
			fmt.Fprintf(&b, "  %-9s %s\n", describeCode(code(e)), e.Path)
		}
	}
	writeEntries("Staged", st.Staged, func(e StatusEntry) string { return e.Index })
	writeEntries("Modified", st.Modified, func(e StatusEntry) string { return e.Worktree })

	writePaths := func(title string, paths []string) {
		if len(paths) == 0 {
			return
		}
		printer.Fprintf(&b, "%s (%d):\n", title, len(paths))
		for _, p := range paths {
			b.WriteString("  " + p + "\n")
		}
	}
	writePaths("Untracked", st.Untracked)
	writePaths("Conflicts", st.Conflicts)

	if st.Stashes > 0 {
		b.WriteString("Stashes: " + plural(st.Stashes, "entry", "entries") + "\n")
	}
	return b.String()
}

// FormatStatusSummary renders the counts on two lines.
func FormatStatusSummary(s StatusSummary) string {
	line := branchLine(s.Branch, "", s.Ahead, s.Behind)
	if s.Clean {
		line += "\nWorking tree clean."
	} else {
		line += printer.Sprintf("\n%d staged, %d modified, %d untracked, %d conflicted.",
			s.StagedCount, s.ModifiedCount, s.UntrackedCount, s.ConflictCount)
	}
	if s.StashCount > 0 {
		line += "\nStashes: " + plural(s.StashCount, "entry", "entries")
	}
	return line
}
