package gitcmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/internal/runner/runnertest"
	"github.com/usestring/devtools-mcp/internal/schema"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

const porcelainFixture = `# branch.oid 1f0c2d9a7be3a1c0e6d58e2b6f0a9c3d4e5f6a7b
# branch.head main
# branch.upstream origin/main
# branch.ab +2 -1
1 M. N... 100644 100644 100644 3b18e512dba79e4c8300dd08aeb37f8e728b8dad 3b18e512dba79e4c8300dd08aeb37f8e728b8dae internal/server.go
1 .M N... 100644 100644 100644 9daeafb9864cf43055ae93beb0afd6c7d144bfa4 9daeafb9864cf43055ae93beb0afd6c7d144bfa4 README.md
1 AM N... 000000 100644 100644 0000000000000000000000000000000000000000 e69de29bb2d1d6434b8b29ae775ad8c2e48c5391 docs/new file.md
2 R. N... 100644 100644 100644 5716ca5987cbf97d6bb54920bea6adde242d87e6 5716ca5987cbf97d6bb54920bea6adde242d87e6 R100 cmd/main.go	cmd/old.go
u UU N... 100644 100644 100644 100644 257cc5642cb1a054f08cc83f2d943e56fd3ebe99 257cc5642cb1a054f08cc83f2d943e56fd3ebe98 257cc5642cb1a054f08cc83f2d943e56fd3ebe97 go.sum
? scratch.txt
? tmp/
`

const stashFixture = `stash@{0}: WIP on main: 1f0c2d9 add server
stash@{1}: On main: experiment
`

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(porcelainFixture, stashFixture)
	require.NoError(t, err)

	assert.Equal(t, "main", st.Branch)
	assert.Equal(t, "origin/main", st.Upstream)
	assert.Equal(t, 2, st.Ahead)
	assert.Equal(t, 1, st.Behind)
	assert.False(t, st.Clean)
	assert.Equal(t, 2, st.Stashes)

	require.Len(t, st.Staged, 3)
	assert.Equal(t, StatusEntry{Path: "internal/server.go", Index: "M", Worktree: "."}, st.Staged[0])
	assert.Equal(t, "docs/new file.md", st.Staged[1].Path)
	assert.Equal(t, StatusEntry{Path: "cmd/main.go", OrigPath: "cmd/old.go", Index: "R", Worktree: "."}, st.Staged[2])

	require.Len(t, st.Modified, 2)
	assert.Equal(t, "README.md", st.Modified[0].Path)
	assert.Equal(t, "docs/new file.md", st.Modified[1].Path)

	assert.Equal(t, []string{"scratch.txt", "tmp/"}, st.Untracked)
	assert.Equal(t, []string{"go.sum"}, st.Conflicts)
}

func TestParseStatus_Clean(t *testing.T) {
	st, err := ParseStatus("# branch.oid abc\n# branch.head main\n", "")
	require.NoError(t, err)
	assert.True(t, st.Clean)
	assert.Equal(t, 0, st.Stashes)
	assert.NotNil(t, st.Staged)
	assert.NotNil(t, st.Untracked)

	text := FormatStatus(st)
	assert.Contains(t, text, "On branch main")
	assert.Contains(t, text, "Working tree clean.")
	assert.Contains(t, FormatStatusSummary(ProjectStatus(st)), "Working tree clean.")
}

func TestParseStatus_Malformed(t *testing.T) {
	for _, in := range []string{
		"1 M. N...\n",
		"2 R. N... 100644 100644 100644 a b R100 no-tab-here\n",
		"# branch.ab +x -1\n",
		"Z what\n",
	} {
		_, err := ParseStatus(in, "")
		assert.Error(t, err, in)
	}
}

func TestProjectStatus(t *testing.T) {
	st, err := ParseStatus(porcelainFixture, stashFixture)
	require.NoError(t, err)

	assert.Equal(t, StatusSummary{
		Branch:         "main",
		Ahead:          2,
		Behind:         1,
		StagedCount:    3,
		ModifiedCount:  2,
		UntrackedCount: 2,
		ConflictCount:  1,
		StashCount:     2,
	}, ProjectStatus(st))
	assert.Equal(t, ProjectStatus(st), ProjectStatus(st))
}

func TestFormatStatus(t *testing.T) {
	st, err := ParseStatus(porcelainFixture, stashFixture)
	require.NoError(t, err)

	text := FormatStatus(st)
	assert.Contains(t, text, "On branch main (tracking origin/main, ahead 2, behind 1)")
	assert.Contains(t, text, "Staged (3):")
	assert.Contains(t, text, "cmd/main.go <- cmd/old.go")
	assert.Contains(t, text, "Conflicts (1):")
	assert.Contains(t, text, "Stashes: 2 entries")

	summary := FormatStatusSummary(ProjectStatus(st))
	assert.Contains(t, summary, "3 staged, 2 modified, 2 untracked, 1 conflicted.")
}

func TestGitStatus_RunsBothCommands(t *testing.T) {
	fake := runnertest.New().
		On("git status --porcelain=v2 --branch", runnertest.Response{Stdout: porcelainFixture}).
		On("git stash list", runnertest.Response{Stdout: stashFixture})

	st, res, err := New(fake).Status(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Stashes)
	assert.Equal(t, porcelainFixture+stashFixture, res.Output())
	assert.Equal(t, "/repo", fake.LastCommand().Dir)
	assert.Len(t, fake.Calls(), 2)
}

func TestGitStatus_NotARepository(t *testing.T) {
	fake := runnertest.New().
		On("git status --porcelain=v2 --branch", runnertest.Response{ExitCode: 128, Stderr: "fatal: not a git repository"}).
		On("git stash list", runnertest.Response{ExitCode: 128, Stderr: "fatal: not a git repository"})

	_, _, err := New(fake).Status(context.Background(), "/tmp")
	require.Error(t, err)
	assert.ErrorIs(t, err, runner.ErrFailed)
	assert.Contains(t, err.Error(), "not a git repository")
}

func logRecord(fields ...string) string {
	return strings.Join(fields, fieldSep) + recordSep + "\n"
}

var logFixture = logRecord("1f0c2d9a7be3a1c0e6d58e2b6f0a9c3d4e5f6a7b", "1f0c2d9", "Ada Lovelace", "ada@example.com", "2026-03-01T10:00:00+00:00", "Add server", "Wire the handler.\n\nRefs #12\n") +
	logRecord("0a1b2c3d4e5f60718293a4b5c6d7e8f901234567", "0a1b2c3", "Grace Hopper", "grace@example.com", "2026-02-27T09:30:00-05:00", "Initial commit", "")

func TestParseLog(t *testing.T) {
	l, err := ParseLog(logFixture)
	require.NoError(t, err)

	assert.Equal(t, 2, l.Total)
	require.Len(t, l.Commits, 2)
	assert.Equal(t, Commit{
		Hash:      "1f0c2d9a7be3a1c0e6d58e2b6f0a9c3d4e5f6a7b",
		ShortHash: "1f0c2d9",
		Author:    "Ada Lovelace",
		Email:     "ada@example.com",
		Date:      "2026-03-01T10:00:00+00:00",
		Subject:   "Add server",
		Body:      "Wire the handler.\n\nRefs #12",
	}, l.Commits[0])
	assert.Empty(t, l.Commits[1].Body)

	s := ProjectLog(l)
	assert.Equal(t, LogSummary{Total: 2, Oneline: []string{"1f0c2d9 Add server", "0a1b2c3 Initial commit"}}, s)

	assert.Contains(t, FormatLog(l), "Author: Ada Lovelace <ada@example.com>")
	assert.Contains(t, FormatLog(l), "    Refs #12")
	assert.Equal(t, "2 commits:\n1f0c2d9 Add server\n0a1b2c3 Initial commit", FormatLogSummary(s))
}

func TestParseLog_EmptyAndMalformed(t *testing.T) {
	l, err := ParseLog("")
	require.NoError(t, err)
	assert.Equal(t, 0, l.Total)
	assert.Equal(t, "No commits found.", FormatLog(l))
	assert.Equal(t, "No commits found.", FormatLogSummary(ProjectLog(l)))

	_, err = ParseLog("just some text" + recordSep)
	assert.Error(t, err)
}

func TestGitLog_Arguments(t *testing.T) {
	fake := runnertest.New().
		On("git log --max-count=5 "+logFormat+" v1.2.0 -- internal/server.go", runnertest.Response{Stdout: logFixture})

	l, _, err := New(fake).Log(context.Background(), LogOptions{Ref: "v1.2.0", Path: "internal/server.go", MaxCount: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, l.Total)

	fake = runnertest.New().On("git log --max-count=20 "+logFormat, runnertest.Response{Stdout: ""})
	_, _, err = New(fake).Log(context.Background(), LogOptions{})
	require.NoError(t, err)
}

const numstatFixture = "12\t3\tinternal/server.go\n0\t40\tlegacy/old.go\n-\t-\tassets/logo.png\n1\t1\tpath with spaces.txt\n"

func TestParseNumstat(t *testing.T) {
	d, err := ParseNumstat(numstatFixture)
	require.NoError(t, err)

	assert.Equal(t, 4, d.FilesChanged)
	assert.Equal(t, 13, d.Additions)
	assert.Equal(t, 44, d.Deletions)
	assert.Equal(t, DiffFile{Path: "assets/logo.png", Binary: true}, d.Files[2])
	assert.Equal(t, "path with spaces.txt", d.Files[3].Path)

	s := ProjectDiff(d)
	assert.Equal(t, DiffSummary{
		FileCount:      4,
		TotalAdditions: 13,
		TotalDeletions: 44,
		Paths:          []string{"internal/server.go", "legacy/old.go", "assets/logo.png", "path with spaces.txt"},
	}, s)

	text := FormatDiff(d)
	assert.Contains(t, text, "assets/logo.png      | Bin")
	assert.Contains(t, text, "4 files changed, 13 insertions(+), 44 deletions(-)")
	assert.True(t, strings.HasPrefix(FormatDiffSummary(s), "4 files changed"))
}

func TestParseNumstat_EmptyAndMalformed(t *testing.T) {
	d, err := ParseNumstat("")
	require.NoError(t, err)
	assert.Equal(t, "No changes.", FormatDiff(d))
	assert.Equal(t, "No changes.", FormatDiffSummary(ProjectDiff(d)))

	_, err = ParseNumstat("x\t1\tfile.go\n")
	assert.Error(t, err)
	_, err = ParseNumstat("no tabs at all\n")
	assert.Error(t, err)
}

func TestGitDiff_Arguments(t *testing.T) {
	fake := runnertest.New().
		On("git diff --numstat --cached HEAD~1 -- a.go b.go", runnertest.Response{Stdout: "1\t0\ta.go\n"})

	d, _, err := New(fake).Diff(context.Background(), DiffOptions{Ref: "HEAD~1", Staged: true, Paths: []string{"a.go", "b.go"}})
	require.NoError(t, err)
	assert.Equal(t, 1, d.FilesChanged)
}

func TestResultTypes_ValidateBothShapes(t *testing.T) {
	h, err := schema.NewHarness(0)
	require.NoError(t, err)
	require.NoError(t, schema.Register(h, StatusResult))
	require.NoError(t, schema.Register(h, LogResult))
	require.NoError(t, schema.Register(h, DiffResult))

	st, err := ParseStatus(porcelainFixture, stashFixture)
	require.NoError(t, err)
	clean, err := ParseStatus("# branch.head main\n", "")
	require.NoError(t, err)
	l, err := ParseLog(logFixture)
	require.NoError(t, err)
	emptyLog, err := ParseLog("")
	require.NoError(t, err)
	d, err := ParseNumstat(numstatFixture)
	require.NoError(t, err)

	for _, s := range []Status{st, clean} {
		assert.NoError(t, h.Validate("git_status", compaction.RepresentationFull, s))
		assert.NoError(t, h.Validate("git_status", compaction.RepresentationCompact, ProjectStatus(s)))
	}
	for _, lg := range []Log{l, emptyLog} {
		assert.NoError(t, h.Validate("git_log", compaction.RepresentationFull, lg))
		assert.NoError(t, h.Validate("git_log", compaction.RepresentationCompact, ProjectLog(lg)))
	}
	assert.NoError(t, h.Validate("git_diff", compaction.RepresentationFull, d))
	assert.NoError(t, h.Validate("git_diff", compaction.RepresentationCompact, ProjectDiff(d)))

	assert.True(t, schema.IsViolation(h.Validate("git_status", compaction.RepresentationFull, ProjectStatus(st))))
}
