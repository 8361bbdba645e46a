// Package testcase holds the record types a grading run populates: one Test
// per :TestCase directive, each owning the Check records its body produced.
package testcase

import (
	"fmt"
	"path/filepath"
)

// Status is the derived outcome of a test case. The zero value is the
// highest-precedence failure so an unpopulated test never reads as passed.
type Status int

const (
	StatusFailedCompile Status = iota
	StatusFailedTime
	StatusMissedError
	StatusFailedRun
	StatusFailedCheck
	StatusFailedOutput
	StatusPassed
)

func (s Status) String() string {
	switch s {
	case StatusFailedCompile:
		return "Failed (compile error)"
	case StatusFailedTime:
		return "Failed (timed out)"
	case StatusMissedError:
		return "Failed (expected error did not occur)"
	case StatusFailedRun:
		return "Failed (run error)"
	case StatusFailedCheck:
		return "Failed (checks)"
	case StatusFailedOutput:
		return "Failed (output mismatch)"
	case StatusPassed:
		return "Passed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// CheckKind distinguishes value assertions from compile-time type comparisons.
type CheckKind int

const (
	CheckAssert CheckKind = iota
	CheckTypeCompare
)

// Comparator values for a Check. Empty means truthiness.
const (
	CompareNone = ""
	CompareType = "TYPE"
)

// CheckResult is one runtime execution of a check. A check inside a loop
// produces one result per iteration.
type CheckResult struct {
	Passed  bool
	LHS     string
	RHS     string
	Message string
}

// Check is one CHECK or CHECK_TYPE occurrence in a test body. IDs are
// contiguous from zero within a test, in source order, and match the
// ":CHECK: <id>" records the generated code writes at runtime.
type Check struct {
	ID         int
	Kind       CheckKind
	Expr       string // raw test expression
	LHS        string
	Comparator string // one of == != < <= > >=, TYPE, or empty for truthiness
	RHS        string
	Args       []string // extra message fragments from the CHECK call

	Results []CheckResult
}

// Passed reports whether the check executed at least once and never failed.
func (c *Check) Passed() bool {
	if len(c.Results) == 0 {
		return false
	}
	for _, r := range c.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Test is one :TestCase in a recipe, along with everything the pipeline
// learned by running it.
type Test struct {
	ID int

	// Configured attributes.
	Name           string
	Points         float64
	Args           string
	Hidden         bool
	MatchCase      bool
	MatchSpace     bool
	CallMain       bool
	TimeoutSec     float64
	ExpectExitCode int
	InputFile      string
	ExpectFile     string
	CodeFile       string

	// Generated-file locations, derived from the working directory and the
	// test id; any may be overridden by a directive argument.
	CPPFile     string
	ExeFile     string
	CompileFile string
	OutputFile  string
	ErrorFile   string
	ResultFile  string

	// Owned data.
	CodeLines []string
	Checks    []*Check

	// Populated by the pipeline.
	CompileExitCode int
	RunExitCode     int
	HitTimeout      bool
	OutputMatch     bool
	Score           float64
	Executed        bool // the binary was launched (compile succeeded)
}

// New allocates a test with its defaults and derived filenames under dir.
func New(id int, dir string) *Test {
	base := filepath.Join(dir, fmt.Sprintf("Test%d", id))
	return &Test{
		ID:          id,
		Name:        fmt.Sprintf("Test #%d", id),
		MatchCase:   true,
		MatchSpace:  true,
		CallMain:    true,
		TimeoutSec:  5,
		OutputMatch: true,
		CPPFile:     base + ".cpp",
		ExeFile:     base + ".exe",
		CompileFile: base + "-compile.txt",
		OutputFile:  base + "-output.txt",
		ErrorFile:   base + "-errors.txt",
		ResultFile:  base + "-result.txt",
	}
}

// Status derives the test outcome. Rows are checked in precedence order;
// the first match wins.
func (t *Test) Status() Status {
	switch {
	case t.CompileExitCode != 0:
		return StatusFailedCompile
	case t.HitTimeout:
		return StatusFailedTime
	case t.RunExitCode != t.ExpectExitCode && t.ExpectExitCode != 0:
		return StatusMissedError
	case t.RunExitCode != 0 && t.ExpectExitCode == 0:
		return StatusFailedRun
	case t.anyCheckFailed():
		return StatusFailedCheck
	case !t.OutputMatch:
		return StatusFailedOutput
	}
	return StatusPassed
}

func (t *Test) anyCheckFailed() bool {
	for _, c := range t.Checks {
		if !c.Passed() {
			return true
		}
	}
	return false
}

func (t *Test) Passed() bool {
	return t.Status() == StatusPassed
}

// EarnedPoints is all-or-nothing: full points on a pass, zero otherwise.
func (t *Test) EarnedPoints() float64 {
	if t.Passed() {
		return t.Points
	}
	return 0
}

// CountChecks returns total, passed, and failed check counts for the test.
func (t *Test) CountChecks() (total, passed, failed int) {
	total = len(t.Checks)
	for _, c := range t.Checks {
		if c.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return total, passed, failed
}
