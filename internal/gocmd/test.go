package gocmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// TestCase is one test or subtest. Output is kept only for failures.
type TestCase struct {
	Package string  `json:"package"`
	Name    string  `json:"name"`
	Action  string  `json:"action"`
	Elapsed float64 `json:"elapsed"`
	Output  string  `json:"output,omitempty"`
}

// TestPackage is the package-level outcome. Output is kept only for
// failures, which covers build errors.
type TestPackage struct {
	Name    string  `json:"name"`
	Action  string  `json:"action"`
	Elapsed float64 `json:"elapsed"`
	Output  string  `json:"output,omitempty"`
}

// TestRun is the full result of go test. Elapsed sums package times in
// seconds.
type TestRun struct {
	Success  bool          `json:"success"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Elapsed  float64       `json:"elapsed"`
	Packages []TestPackage `json:"packages,omitempty"`
	Tests    []TestCase    `json:"tests,omitempty"`
}

// TestSummary keeps counts and the names of what failed. A failed package
// with no failing test (a build failure) is listed by package path alone.
type TestSummary struct {
	Success        bool     `json:"success"`
	PassedCount    int      `json:"passed_count"`
	FailedCount    int      `json:"failed_count"`
	SkippedCount   int      `json:"skipped_count"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	FailedTests    []string `json:"failed_tests,omitempty"`
}

// TestResult binds TestRun to its summary and formatters.
var TestResult = compaction.NewResultType("go_test",
	compaction.ProjectionFunc[TestRun, TestSummary](ProjectTestRun),
	FormatTestRun, FormatTestSummary)

// TestOptions selects what to test. Packages and Run must already have passed
// the flag-injection guard.
type TestOptions struct {
	Dir      string
	Packages []string
	// Run is passed to -run when set.
	Run   string
	Short bool
}

// Test runs "go test -json". Exit status 1 means tests failed and is not an
// error.
func (g *Go) Test(ctx context.Context, opts TestOptions) (TestRun, *runner.Result, error) {
	args := []string{"test", "-json"}
	if opts.Short {
		args = append(args, "-short")
	}
	if opts.Run != "" {
		args = append(args, "-run", opts.Run)
	}
	args = append(args, packagesOrDefault(opts.Packages)...)

	cmd, res, err := g.run(ctx, opts.Dir, args...)
	if err != nil {
		return TestRun{}, nil, err
	}

	run, err := ParseTestEvents(res.Stdout)
	switch {
	case errors.Is(err, errNoEvents) && res.ExitCode == 0:
		// A pattern matching no packages prints nothing and succeeds.
		return TestRun{Success: true}, res, nil
	case err != nil:
		if exitErr := runner.RequireExit(cmd, res); exitErr != nil {
			return TestRun{}, nil, exitErr
		}
		return TestRun{}, nil, runner.Unexpected(cmd, err)
	}
	if res.ExitCode != 0 && run.Failed == 0 && !anyPackageFailed(run) {
		return TestRun{}, nil, runner.RequireExit(cmd, res)
	}
	run.Success = res.ExitCode == 0 && run.Failed == 0 && !anyPackageFailed(run)
	return run, res, nil
}

var errNoEvents = errors.New("no test events in output")

type testKey struct{ pkg, name string }

// ParseTestEvents parses a "go test -json" stream. Non-JSON lines are
// ignored. Success is derived from the events alone.
func ParseTestEvents(out string) (TestRun, error) {
	run := TestRun{Packages: []TestPackage{}, Tests: []TestCase{}}
	testOutput := map[testKey]*strings.Builder{}
	pkgOutput := map[string]*strings.Builder{}
	pkgIndex := map[string]int{}
	events := 0

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] != '{' || !gjson.Valid(line) {
			continue
		}
		ev := gjson.Parse(line)
		action := ev.Get("Action").String()
		pkg := ev.Get("Package").String()
		if pkg == "" {
			// Build events name the test variant: "pkg [pkg.test]".
			pkg, _, _ = strings.Cut(ev.Get("ImportPath").String(), " [")
		}
		test := ev.Get("Test").String()
		events++

		switch action {
		case "output":
			if test != "" {
				appendOutput(testOutput, testKey{pkg, test}, ev.Get("Output").String())
			} else {
				appendOutput(pkgOutput, pkg, ev.Get("Output").String())
			}
		case "build-output":
			appendOutput(pkgOutput, pkg, ev.Get("Output").String())
		case "build-fail":
			recordPackage(&run, pkgIndex, pkg, "fail", 0)
		case "pass", "fail", "skip":
			elapsed := ev.Get("Elapsed").Float()
			if test == "" {
				recordPackage(&run, pkgIndex, pkg, action, elapsed)
				continue
			}
			tc := TestCase{Package: pkg, Name: test, Action: action, Elapsed: elapsed}
			switch action {
			case "pass":
				run.Passed++
			case "fail":
				run.Failed++
				if b, ok := testOutput[testKey{pkg, test}]; ok {
					tc.Output = b.String()
				}
			case "skip":
				run.Skipped++
			}
			run.Tests = append(run.Tests, tc)
		}
	}
	if events == 0 {
		return TestRun{}, errNoEvents
	}

	for i := range run.Packages {
		p := &run.Packages[i]
		run.Elapsed += p.Elapsed
		if p.Action == "fail" {
			if b, ok := pkgOutput[p.Name]; ok {
				p.Output = b.String()
			}
		}
	}
	run.Elapsed = math.Round(run.Elapsed*1000) / 1000
	run.Success = run.Failed == 0 && !anyPackageFailed(run)
	return run, nil
}

func appendOutput[K comparable](m map[K]*strings.Builder, k K, s string) {
	b, ok := m[k]
	if !ok {
		b = &strings.Builder{}
		m[k] = b
	}
	b.WriteString(s)
}

// recordPackage keeps one entry per package; a later fail overrides.
func recordPackage(run *TestRun, index map[string]int, pkg, action string, elapsed float64) {
	if i, ok := index[pkg]; ok {
		p := &run.Packages[i]
		if p.Action != "fail" {
			p.Action = action
		}
		p.Elapsed = max(p.Elapsed, elapsed)
		return
	}
	index[pkg] = len(run.Packages)
	run.Packages = append(run.Packages, TestPackage{Name: pkg, Action: action, Elapsed: elapsed})
}

func anyPackageFailed(run TestRun) bool {
	for _, p := range run.Packages {
		if p.Action == "fail" {
			return true
		}
	}
	return false
}

// ProjectTestRun keeps counts and failure names.
func ProjectTestRun(run TestRun) TestSummary {
	s := TestSummary{
		Success:        run.Success,
		PassedCount:    run.Passed,
		FailedCount:    run.Failed,
		SkippedCount:   run.Skipped,
		ElapsedSeconds: run.Elapsed,
	}
	failedPkgs := map[string]bool{}
	for _, tc := range run.Tests {
		if tc.Action == "fail" {
			s.FailedTests = append(s.FailedTests, tc.Package+"."+tc.Name)
			failedPkgs[tc.Package] = true
		}
	}
	for _, p := range run.Packages {
		if p.Action == "fail" && !failedPkgs[p.Name] {
			s.FailedTests = append(s.FailedTests, p.Name)
		}
	}
	return s
}

func countsLine(passed, failed, skipped int, elapsed float64) string {
	return printer.Sprintf("%d passed, %d failed, %d skipped in %.2fs", passed, failed, skipped, elapsed)
}

// FormatTestRun renders per-package outcomes and the output of failures.
func FormatTestRun(run TestRun) string {
	var b strings.Builder
	if run.Success {
		b.WriteString("Tests passed: ")
	} else {
		b.WriteString("Tests failed: ")
	}
	b.WriteString(countsLine(run.Passed, run.Failed, run.Skipped, run.Elapsed) + "\n")

	for _, p := range run.Packages {
		status := map[string]string{"pass": "ok  ", "fail": "FAIL", "skip": "?   "}[p.Action]
		fmt.Fprintf(&b, "%s %s %.3fs\n", status, p.Name, p.Elapsed)
		if p.Output != "" {
			b.WriteString(indent(p.Output, "    ") + "\n")
		}
	}
	for _, tc := range run.Tests {
		if tc.Action != "fail" {
			continue
		}
		fmt.Fprintf(&b, "--- FAIL: %s (%s, %.2fs)\n", tc.Name, tc.Package, tc.Elapsed)
		if tc.Output != "" {
			b.WriteString(indent(tc.Output, "    ") + "\n")
		}
	}
	return b.String()
}

// FormatTestSummary renders counts and failed names.
func FormatTestSummary(s TestSummary) string {
	head := "Tests passed: "
	if !s.Success {
		head = "Tests failed: "
	}
	out := head + countsLine(s.PassedCount, s.FailedCount, s.SkippedCount, s.ElapsedSeconds)
	if len(s.FailedTests) > 0 {
		out += "\nFailed:\n" + indent(strings.Join(s.FailedTests, "\n"), "  ")
	}
	return out
}
