// Package runner drives the per-test execution pipeline: generate the source,
// compile it, run it under a timeout, compare the output, and read back the
// results protocol.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/mercere99/emperfect/internal/check"
	"github.com/mercere99/emperfect/internal/recipe"
	"github.com/mercere99/emperfect/internal/testcase"
	"github.com/mercere99/emperfect/pkg/cerr"
	"github.com/mercere99/emperfect/pkg/shellformat"
)

// Pipeline runs test cases one at a time; there is no concurrency between
// tests, only between the pipes of a single child process.
type Pipeline struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Run takes a configured test through all five phases. Compile failures,
// timeouts, nonzero exits, and output mismatches land on the test record;
// only harness-internal problems return an error.
func (p *Pipeline) Run(ctx context.Context, t *testcase.Test, spec recipe.RunSpec) error {
	p.logger.Debug("running test case", "id", t.ID, "name", t.Name)
	if err := p.generate(t, spec); err != nil {
		return err
	}
	if err := p.compile(ctx, t, spec); err != nil {
		return err
	}
	if t.CompileExitCode == 0 {
		if err := p.execute(ctx, t, spec); err != nil {
			return err
		}
	}
	if t.Executed {
		if err := p.compare(t); err != nil {
			return err
		}
	}
	return p.record(t)
}

// generate is phase 1: refresh the per-test variables, resolve the body,
// rewrite its macros, and write the complete translation unit.
func (p *Pipeline) generate(t *testcase.Test, spec recipe.RunSpec) error {
	setTestVars(spec.Vars, t)

	lines := t.CodeLines
	if t.CodeFile != "" {
		data, err := os.ReadFile(t.CodeFile)
		if err != nil {
			return cerr.New(cerr.Filesystem, "cannot read code_file "+t.CodeFile, err)
		}
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	body, err := interpolateAll(spec.Vars, lines)
	if err != nil {
		return err
	}
	header, err := interpolateAll(spec.Vars, spec.HeaderLines)
	if err != nil {
		return err
	}

	rewritten, err := check.Rewrite(strings.Join(body, "\n"), t)
	if err != nil {
		return err
	}
	source := check.GenerateSource(t, header, rewritten)
	if err := os.WriteFile(t.CPPFile, []byte(source), 0o644); err != nil {
		return cerr.New(cerr.Filesystem, "cannot write "+t.CPPFile, err)
	}
	spec.RunLog.Debug("generated source", "test", t.ID, "file", t.CPPFile, "checks", len(t.Checks))
	return nil
}

// compile is phase 2: run each compile-recipe line through the system shell,
// keeping the exit code of the last one. The recipe is responsible for
// directing compiler diagnostics into the compile log file.
func (p *Pipeline) compile(ctx context.Context, t *testcase.Test, spec recipe.RunSpec) error {
	for _, template := range spec.CompileLines {
		command, err := spec.Vars.Apply(template)
		if err != nil {
			return err
		}
		spec.RunLog.Debug("compile command", "test", t.ID, "command", shellformat.Format(command))
		status, err := p.runShell(ctx, command, spec.RunLog)
		if err != nil {
			return err
		}
		t.CompileExitCode = status
	}
	spec.RunLog.Debug("compile finished", "test", t.ID, "exit_code", t.CompileExitCode)
	return nil
}

// execute is phase 3: launch the binary under an external wall-clock timeout
// with redirected stdio.
func (p *Pipeline) execute(ctx context.Context, t *testcase.Test, spec recipe.RunSpec) error {
	command := execCommand(t)
	spec.RunLog.Debug("execute command", "test", t.ID, "command", command)
	status, err := p.runShell(ctx, command, spec.RunLog)
	if err != nil {
		return err
	}
	t.RunExitCode = status
	t.HitTimeout = statusIsTimeout(status)
	t.Executed = true
	spec.RunLog.Debug("execute finished",
		"test", t.ID, "exit_code", status, "timeout", t.HitTimeout)
	return nil
}

// compare is phase 4: check the captured stdout against the expected file
// under the test's case and whitespace policy. With no expected file the
// match is vacuously true.
func (p *Pipeline) compare(t *testcase.Test) error {
	if t.ExpectFile == "" {
		t.OutputMatch = true
		return nil
	}
	actual, err := loadLines(t.OutputFile)
	if err != nil {
		return err
	}
	expected, err := loadLines(t.ExpectFile)
	if err != nil {
		return err
	}
	t.OutputMatch = sequencesEqual(
		normalizeOutput(actual, t.MatchCase, t.MatchSpace),
		normalizeOutput(expected, t.MatchCase, t.MatchSpace),
	)
	return nil
}

// record is phase 5: read the results protocol back into the check records.
func (p *Pipeline) record(t *testcase.Test) error {
	if !t.Executed || t.HitTimeout {
		return nil
	}
	return ParseResults(t.ResultFile, t)
}

// runShell executes one command line via the system shell, draining the
// child's pipes concurrently into the run log.
func (p *Pipeline) runShell(ctx context.Context, command string, runLog *slog.Logger) (int, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return 0, cerr.New(cerr.Internal, "failed to create stdout pipe", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return 0, cerr.New(cerr.Internal, "failed to create stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, cerr.New(cerr.Internal, "failed to start shell", err)
	}

	var stdout, stderr bytes.Buffer
	var wg conc.WaitGroup
	wg.Go(func() { _, _ = io.Copy(&stdout, stdoutPipe) })
	wg.Go(func() { _, _ = io.Copy(&stderr, stderrPipe) })
	wg.Wait()

	status := 0
	if err := cmd.Wait(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return 0, cerr.New(cerr.Internal, "shell wait failed", err)
		}
		status = exitErr.ExitCode()
	}
	if stdout.Len() > 0 {
		runLog.Debug("shell stdout", "output", strings.TrimRight(stdout.String(), "\n"))
	}
	if stderr.Len() > 0 {
		runLog.Debug("shell stderr", "output", strings.TrimRight(stderr.String(), "\n"))
	}
	return status, nil
}

// execCommand builds the shell line that runs a test binary: external timeout
// wrapper, optional CLI arguments and input redirection, stdout and stderr
// captured to the per-test files.
func execCommand(t *testcase.Test) string {
	exe := t.ExeFile
	if !strings.Contains(exe, "/") {
		exe = "./" + exe
	}
	var b strings.Builder
	fmt.Fprintf(&b, "timeout %s %s", formatSeconds(t.TimeoutSec), exe)
	if t.Args != "" {
		b.WriteString(" ")
		b.WriteString(t.Args)
	}
	if t.InputFile != "" {
		fmt.Fprintf(&b, " < %s", t.InputFile)
	}
	fmt.Fprintf(&b, " > %s 2> %s", t.OutputFile, t.ErrorFile)
	return b.String()
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'g', -1, 64)
}

// statusIsTimeout detects the timeout wrapper's 124 in either byte of the
// raw status; shells propagate it differently across platforms.
func statusIsTimeout(status int) bool {
	return status&0xFF == 124 || (status>>8)&0xFF == 124
}

// setTestVars resets the transient per-test keys so user-authored compile and
// header lines can reference them.
func setTestVars(vars recipe.Vars, t *testcase.Test) {
	vars.Set("#test", strconv.Itoa(t.ID))
	vars.Set("cpp", t.CPPFile)
	vars.Set("exe", t.ExeFile)
	vars.Set("out", t.OutputFile)
	vars.Set("compile", t.CompileFile)
	vars.Set("error", t.ErrorFile)
	vars.Set("result", t.ResultFile)
}

func interpolateAll(vars recipe.Vars, lines []string) ([]string, error) {
	out := make([]string, len(lines))
	for i, line := range lines {
		expanded, err := vars.Apply(line)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}

func loadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerr.New(cerr.Filesystem, "cannot read "+path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n"), nil
}

func sequencesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
