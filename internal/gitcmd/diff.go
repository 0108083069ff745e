package gitcmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// DiffFile is one path's line counts. Binary files have no line counts.
type DiffFile struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Binary    bool   `json:"binary"`
}

// Diff is the full per-file change list.
type Diff struct {
	FilesChanged int        `json:"files_changed"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	Files        []DiffFile `json:"files,omitempty"`
}

// DiffSummary keeps totals and the changed paths.
type DiffSummary struct {
	FileCount      int      `json:"file_count"`
	TotalAdditions int      `json:"total_additions"`
	TotalDeletions int      `json:"total_deletions"`
	Paths          []string `json:"paths,omitempty"`
}

// DiffResult binds Diff to its summary and formatters.
var DiffResult = compaction.NewResultType("git_diff",
	compaction.ProjectionFunc[Diff, DiffSummary](ProjectDiff),
	FormatDiff, FormatDiffSummary)

// DiffOptions selects what to compare. Ref and Paths must already have passed
// the flag-injection guard.
type DiffOptions struct {
	Dir    string
	Ref    string
	Staged bool
	Paths  []string
}

// Diff runs "git diff --numstat".
func (g *Git) Diff(ctx context.Context, opts DiffOptions) (Diff, *runner.Result, error) {
	args := []string{"diff", "--numstat"}
	if opts.Staged {
		args = append(args, "--cached")
	}
	if opts.Ref != "" {
		args = append(args, opts.Ref)
	}
	if len(opts.Paths) > 0 {
		args = append(args, "--")
		args = append(args, opts.Paths...)
	}

	cmd, res, err := g.run(ctx, opts.Dir, args...)
	if err != nil {
		return Diff{}, nil, err
	}
	if err := runner.RequireExit(cmd, res); err != nil {
		return Diff{}, nil, err
	}
	d, err := ParseNumstat(res.Stdout)
	if err != nil {
		return Diff{}, nil, runner.Unexpected(cmd, err)
	}
	return d, res, nil
}

// ParseNumstat parses "git diff --numstat" output. Binary files report "-"
// for both counts.
func ParseNumstat(out string) (Diff, error) {
	d := Diff{Files: []DiffFile{}}
	for _, line := range splitLines(out) {
		if line == "" {
			continue
		}
		f := strings.SplitN(line, "\t", 3)
		if len(f) != 3 {
			return Diff{}, fmt.Errorf("malformed numstat line %q", line)
		}
		file := DiffFile{Path: f[2]}
		if f[0] == "-" && f[1] == "-" {
			file.Binary = true
		} else {
			var err error
			if file.Additions, err = strconv.Atoi(f[0]); err != nil {
				return Diff{}, fmt.Errorf("numstat additions in %q: %w", line, err)
			}
			if file.Deletions, err = strconv.Atoi(f[1]); err != nil {
				return Diff{}, fmt.Errorf("numstat deletions in %q: %w", line, err)
			}
		}
		d.Files = append(d.Files, file)
		d.Additions += file.Additions
		d.Deletions += file.Deletions
	}
	d.FilesChanged = len(d.Files)
	return d, nil
}

// ProjectDiff reduces a diff to totals and paths.
func ProjectDiff(d Diff) DiffSummary {
	s := DiffSummary{
		FileCount:      d.FilesChanged,
		TotalAdditions: d.Additions,
		TotalDeletions: d.Deletions,
	}
	if len(d.Files) > 0 {
		s.Paths = make([]string, len(d.Files))
		for i, f := range d.Files {
			s.Paths[i] = f.Path
		}
	}
	return s
}

func totalsLine(files, adds, dels int) string {
	return printer.Sprintf("%s changed, %d insertions(+), %d deletions(-)",
		plural(files, "file", "files"), adds, dels)
}

// FormatDiff renders a diffstat-like listing.
func FormatDiff(d Diff) string {
	if d.FilesChanged == 0 {
		return "No changes."
	}
	width := 0
	for _, f := range d.Files {
		width = max(width, len(f.Path))
	}
	var b strings.Builder
	for _, f := range d.Files {
		if f.Binary {
			fmt.Fprintf(&b, " %-*s | Bin\n", width, f.Path)
			continue
		}
		fmt.Fprintf(&b, " %-*s | %s\n", width, f.Path, printer.Sprintf("+%d -%d", f.Additions, f.Deletions))
	}
	b.WriteString(" " + totalsLine(d.FilesChanged, d.Additions, d.Deletions) + "\n")
	return b.String()
}

// FormatDiffSummary renders totals followed by the paths.
func FormatDiffSummary(s DiffSummary) string {
	if s.FileCount == 0 {
		return "No changes."
	}
	return totalsLine(s.FileCount, s.TotalAdditions, s.TotalDeletions) + "\n" + strings.Join(s.Paths, "\n")
}
