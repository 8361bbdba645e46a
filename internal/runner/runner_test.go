package runner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercere99/emperfect/internal/recipe"
	"github.com/mercere99/emperfect/internal/testcase"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestStatusIsTimeout(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, false},
		{1, false},
		{124, true},        // low byte
		{124 << 8, true},   // high byte
		{124<<8 | 1, true}, // high byte with extra low bits
		{125, false},
	}
	for _, tt := range tests {
		if got := statusIsTimeout(tt.status); got != tt.want {
			t.Errorf("statusIsTimeout(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestExecCommand(t *testing.T) {
	tc := testcase.New(0, ".emperfect")
	tc.TimeoutSec = 5
	assert.Equal(t,
		"timeout 5 .emperfect/Test0.exe > .emperfect/Test0-output.txt 2> .emperfect/Test0-errors.txt",
		execCommand(tc))

	tc.Args = "-n 3"
	tc.InputFile = "input.txt"
	tc.TimeoutSec = 1.5
	got := execCommand(tc)
	assert.Contains(t, got, "timeout 1.5 ")
	assert.Contains(t, got, " -n 3 ")
	assert.Contains(t, got, " < input.txt ")
}

func TestExecCommandRelativeExe(t *testing.T) {
	tc := testcase.New(0, ".emperfect")
	tc.ExeFile = "a.out"
	assert.True(t, strings.HasPrefix(execCommand(tc), "timeout 5 ./a.out "))
}

func TestSetTestVars(t *testing.T) {
	vars := recipe.NewVars()
	tc := testcase.New(2, ".emperfect")
	setTestVars(vars, tc)

	expect := map[string]string{
		"#test":   "2",
		"cpp":     ".emperfect/Test2.cpp",
		"exe":     ".emperfect/Test2.exe",
		"out":     ".emperfect/Test2-output.txt",
		"compile": ".emperfect/Test2-compile.txt",
		"error":   ".emperfect/Test2-errors.txt",
		"result":  ".emperfect/Test2-result.txt",
	}
	for key, want := range expect {
		got, ok := vars.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestRunShell(t *testing.T) {
	p := New(discardLogger())

	status, err := p.runShell(context.Background(), "exit 3", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, status)

	status, err = p.runShell(context.Background(), "true", discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, status)
}

// TestGeneratePhase drives phase 1 end to end against a real directory:
// variables refreshed, macros rewritten, and the translation unit on disk.
func TestGeneratePhase(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir(".emperfect", 0o755))

	vars := recipe.NewVars()
	tc := testcase.New(0, ".emperfect")
	tc.Points = 5
	tc.CodeLines = []string{"CHECK(1 + 1 == 2);"}

	p := New(discardLogger())
	spec := recipe.RunSpec{
		Vars:        vars,
		HeaderLines: []string{"#include <cmath>"},
		RunLog:      discardLogger(),
	}
	require.NoError(t, p.generate(tc, spec))

	data, err := os.ReadFile(tc.CPPFile)
	require.NoError(t, err)
	src := string(data)
	assert.Contains(t, src, "#include <cmath>")
	assert.Contains(t, src, `":CHECK: " << 0`)
	assert.Contains(t, src, "Runner runner_instance;")
	require.Len(t, tc.Checks, 1)

	// Per-test variables are visible to compile templates afterwards.
	cppVar, ok := vars.Get("cpp")
	require.True(t, ok)
	assert.Equal(t, tc.CPPFile, cppVar)
}

func TestGeneratePhaseCodeFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir(".emperfect", 0o755))

	codePath := filepath.Join(t.TempDir(), "body.cpp")
	require.NoError(t, os.WriteFile(codePath, []byte("CHECK(2 > 1);\n"), 0o644))

	vars := recipe.NewVars()
	tc := testcase.New(0, ".emperfect")
	tc.CodeFile = codePath

	p := New(discardLogger())
	require.NoError(t, p.generate(tc, recipe.RunSpec{Vars: vars, RunLog: discardLogger()}))
	require.Len(t, tc.Checks, 1)
	assert.Equal(t, ">", tc.Checks[0].Comparator)
}

func TestComparePhase(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.txt")
	expectPath := filepath.Join(dir, "expect.txt")
	require.NoError(t, os.WriteFile(outPath, []byte("HELLO\n"), 0o644))
	require.NoError(t, os.WriteFile(expectPath, []byte("hello\n"), 0o644))

	p := New(discardLogger())

	tc := testcase.New(0, dir)
	tc.OutputFile = outPath
	tc.ExpectFile = expectPath
	tc.MatchCase = false
	require.NoError(t, p.compare(tc))
	assert.True(t, tc.OutputMatch)

	tc.MatchCase = true
	require.NoError(t, p.compare(tc))
	assert.False(t, tc.OutputMatch)
}

func TestComparePhaseVacuousWithoutExpectFile(t *testing.T) {
	p := New(discardLogger())
	tc := testcase.New(0, t.TempDir())
	tc.OutputMatch = false // pipeline always recomputes it
	require.NoError(t, p.compare(tc))
	assert.True(t, tc.OutputMatch)
}
