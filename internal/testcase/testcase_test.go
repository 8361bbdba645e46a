package testcase

import (
	"path/filepath"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	tc := New(3, ".emperfect")

	if tc.Name != "Test #3" {
		t.Errorf("default name: got %q", tc.Name)
	}
	if tc.Points != 0 || tc.Args != "" || tc.Hidden {
		t.Error("unexpected defaults for points/args/hidden")
	}
	if !tc.MatchCase || !tc.MatchSpace || !tc.CallMain {
		t.Error("match_case, match_space, and run_main default to true")
	}
	if tc.TimeoutSec != 5 {
		t.Errorf("default timeout: got %v", tc.TimeoutSec)
	}
	if tc.ExpectExitCode != 0 {
		t.Errorf("default exit code: got %d", tc.ExpectExitCode)
	}

	files := map[string]string{
		tc.CPPFile:     "Test3.cpp",
		tc.ExeFile:     "Test3.exe",
		tc.CompileFile: "Test3-compile.txt",
		tc.OutputFile:  "Test3-output.txt",
		tc.ErrorFile:   "Test3-errors.txt",
		tc.ResultFile:  "Test3-result.txt",
	}
	for full, base := range files {
		if full != filepath.Join(".emperfect", base) {
			t.Errorf("derived file: got %q, want %q", full, filepath.Join(".emperfect", base))
		}
	}
}

func TestCheckPassed(t *testing.T) {
	c := &Check{}
	if c.Passed() {
		t.Error("a check that never executed must not count as passed")
	}

	c.Results = append(c.Results, CheckResult{Passed: true})
	if !c.Passed() {
		t.Error("single passing execution should pass")
	}

	c.Results = append(c.Results, CheckResult{Passed: false})
	if c.Passed() {
		t.Error("any failing execution fails the check")
	}
}

func TestStatusPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Test)
		want   Status
	}{
		{
			name:   "compile failure wins over everything",
			mutate: func(tc *Test) { tc.CompileExitCode = 1; tc.HitTimeout = true; tc.RunExitCode = 9 },
			want:   StatusFailedCompile,
		},
		{
			name:   "timeout beats run failures",
			mutate: func(tc *Test) { tc.HitTimeout = true; tc.RunExitCode = 124 },
			want:   StatusFailedTime,
		},
		{
			name:   "missed expected error",
			mutate: func(tc *Test) { tc.ExpectExitCode = 1; tc.RunExitCode = 0 },
			want:   StatusMissedError,
		},
		{
			name:   "expected nonzero exit achieved",
			mutate: func(tc *Test) { tc.ExpectExitCode = 1; tc.RunExitCode = 1 },
			want:   StatusPassed,
		},
		{
			name:   "unexpected nonzero exit",
			mutate: func(tc *Test) { tc.RunExitCode = 1 },
			want:   StatusFailedRun,
		},
		{
			name: "check miss",
			mutate: func(tc *Test) {
				tc.Checks = []*Check{{Results: []CheckResult{{Passed: false}}}}
			},
			want: StatusFailedCheck,
		},
		{
			name: "check miss beats output mismatch",
			mutate: func(tc *Test) {
				tc.Checks = []*Check{{}}
				tc.OutputMatch = false
			},
			want: StatusFailedCheck,
		},
		{
			name:   "output mismatch",
			mutate: func(tc *Test) { tc.OutputMatch = false },
			want:   StatusFailedOutput,
		},
		{
			name:   "all clear",
			mutate: func(tc *Test) {},
			want:   StatusPassed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := New(0, ".emperfect")
			tt.mutate(tc)
			if got := tc.Status(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEarnedPoints(t *testing.T) {
	tc := New(0, ".emperfect")
	tc.Points = 5

	if got := tc.EarnedPoints(); got != 5 {
		t.Errorf("passing test earns full points, got %v", got)
	}

	tc.CompileExitCode = 1
	if got := tc.EarnedPoints(); got != 0 {
		t.Errorf("failing test earns zero, got %v", got)
	}
}

func TestCountChecks(t *testing.T) {
	tc := New(0, ".emperfect")
	tc.Checks = []*Check{
		{Results: []CheckResult{{Passed: true}}},
		{Results: []CheckResult{{Passed: false}}},
		{},
	}
	total, passed, failed := tc.CountChecks()
	if total != 3 || passed != 1 || failed != 2 {
		t.Errorf("got total=%d passed=%d failed=%d", total, passed, failed)
	}
}
