// Package recipe interprets a grading recipe: it scans directives, expands
// variables, and drives one test-case pipeline run per :TestCase.
package recipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mercere99/emperfect/internal/report"
	"github.com/mercere99/emperfect/internal/testcase"
	"github.com/mercere99/emperfect/pkg/cerr"
	"github.com/mercere99/emperfect/pkg/clog"
)

// logBanner is the first line of the run-wide log file.
const logBanner = "== EMPERFECT TEST LOG =="

// RunSpec is everything the pipeline needs beyond the test itself.
type RunSpec struct {
	Vars         Vars
	CompileLines []string // shell command templates, interpolated per test
	HeaderLines  []string // shared header prepended inside generated source
	RunLog       *slog.Logger
}

// TestRunner executes one synthesized test case through the five pipeline
// phases. Per-test failures are recorded on the test; only harness-internal
// problems surface as errors.
type TestRunner interface {
	Run(ctx context.Context, t *testcase.Test, spec RunSpec) error
}

// Interpreter reads a recipe file and dispatches its directives.
type Interpreter struct {
	path   string
	runner TestRunner
	logger *slog.Logger
	runID  string

	vars        Vars
	scanner     *Scanner
	compile     []string
	header      []string
	sinks       []*report.Sink
	tests       []*testcase.Test
	initialized bool

	runLog     *slog.Logger
	runLogFile *os.File
}

func New(path string, runner TestRunner, logger *slog.Logger, runID string) *Interpreter {
	return &Interpreter{
		path:   path,
		runner: runner,
		logger: logger,
		runID:  runID,
		vars:   NewVars(),
	}
}

// Tests returns the test cases in recipe order; valid after Run.
func (r *Interpreter) Tests() []*testcase.Test {
	return r.tests
}

// ArtifactFiles returns the file-backed outputs of the run: every sink with a
// filename, plus the run manifest.
func (r *Interpreter) ArtifactFiles() []string {
	var files []string
	for _, sink := range r.sinks {
		if name := sink.Filename(); name != "" {
			files = append(files, name)
		}
	}
	files = append(files, r.manifestPath())
	return files
}

func (r *Interpreter) manifestPath() string {
	dir, _ := r.vars.Get("dir")
	return filepath.Join(dir, "results.yaml")
}

// Run interprets the whole recipe: one pass over the directives, running each
// test case as its :TestCase directive is reached, then the summaries and the
// run manifest.
func (r *Interpreter) Run(ctx context.Context) error {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return cerr.New(cerr.Filesystem, "cannot read recipe "+r.path, err)
	}
	r.scanner = NewScanner(string(content))
	defer r.closeRunLog()

	for {
		raw, lineNo, ok := r.scanner.ReadLine()
		if !ok {
			break
		}
		line, err := r.vars.Apply(raw)
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, ":") {
			return cerr.Newf(cerr.Parse, "line %d: expected a directive, found %q", lineNo, line)
		}
		fields := strings.Fields(line)
		directive := strings.ToLower(fields[0])
		args := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

		if err := r.dispatch(ctx, directive, args, lineNo); err != nil {
			return err
		}
	}

	return r.finish()
}

func (r *Interpreter) dispatch(ctx context.Context, directive, args string, lineNo int) error {
	switch directive {
	case ":init":
		return r.handleInit(args)
	case ":compile":
		if err := r.ensureInit(); err != nil {
			return err
		}
		if _, err := r.vars.Load(args); err != nil {
			return err
		}
		r.compile = r.scanner.ReadBlock(false)
		r.runLog.Debug("compile recipe registered", "commands", len(r.compile))
		return nil
	case ":header":
		if err := r.ensureInit(); err != nil {
			return err
		}
		if _, err := r.vars.Load(args); err != nil {
			return err
		}
		r.header = r.scanner.ReadBlock(true)
		r.runLog.Debug("shared header registered", "lines", len(r.header))
		return nil
	case ":output":
		if err := r.ensureInit(); err != nil {
			return err
		}
		return r.handleOutput(args)
	case ":testcase":
		if err := r.ensureInit(); err != nil {
			return err
		}
		return r.handleTestCase(ctx, args, lineNo)
	default:
		return cerr.Newf(cerr.Parse, "line %d: unknown directive %q", lineNo, directive)
	}
}

// handleInit loads run-level variables and prepares the working directory and
// the run log. Only one :Init is allowed per recipe; any other directive seen
// first triggers an implicit :Init with no arguments.
func (r *Interpreter) handleInit(args string) error {
	if r.initialized {
		return cerr.Newf(cerr.Parse, ":Init may only appear once")
	}
	r.initialized = true

	if _, err := r.vars.Load(args); err != nil {
		return err
	}
	dir, _ := r.vars.Get("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cerr.New(cerr.Filesystem, "cannot create working directory "+dir, err)
	}

	logName, _ := r.vars.Get("log")
	logPath := filepath.Join(dir, logName)
	file, err := os.Create(logPath)
	if err != nil {
		return cerr.New(cerr.Filesystem, "cannot create log file "+logPath, err)
	}
	fmt.Fprintf(file, "%s\n", logBanner)
	fmt.Fprintf(file, "run %s\n", r.runID)
	r.runLogFile = file
	r.runLog = slog.New(clog.NewTextHandler(file,
		clog.WithColor(false),
		clog.WithLevel(slog.LevelDebug),
	))
	r.runLog.Info("initialized", "dir", dir, "recipe", r.path)
	return nil
}

func (r *Interpreter) ensureInit() error {
	if r.initialized {
		return nil
	}
	return r.handleInit("")
}

func (r *Interpreter) handleOutput(args string) error {
	pairs, err := ParseArgs(args)
	if err != nil {
		return err
	}
	var detailName, filename, typ string
	for _, kv := range pairs {
		switch kv.Key {
		case "detail":
			detailName = kv.Value
		case "filename":
			filename = kv.Value
		case "type":
			typ = kv.Value
		default:
			return cerr.Newf(cerr.Parse, ":Output: unknown argument key %q", kv.Key)
		}
	}
	sink, err := report.NewSink(detailName, filename, typ)
	if err != nil {
		return err
	}
	r.sinks = append(r.sinks, sink)
	r.runLog.Debug("output sink registered",
		"detail", detailName, "filename", filename)
	return nil
}

func (r *Interpreter) handleTestCase(ctx context.Context, args string, lineNo int) error {
	if len(r.compile) == 0 {
		return cerr.Newf(cerr.Parse, "line %d: :TestCase before any :Compile", lineNo)
	}

	dir, _ := r.vars.Get("dir")
	t := testcase.New(len(r.tests), dir)
	if err := r.configureTest(t, args, lineNo); err != nil {
		return err
	}

	body := r.scanner.ReadBlock(true)
	if t.CodeFile != "" {
		if len(body) > 0 {
			return cerr.Newf(cerr.Parse,
				"line %d: test %q has both code_file and an inline code block", lineNo, t.Name)
		}
	} else {
		t.CodeLines = body
	}

	r.runLog.Info("running test", "id", t.ID, "name", t.Name)
	err := r.runner.Run(ctx, t, RunSpec{
		Vars:         r.vars,
		CompileLines: r.compile,
		HeaderLines:  r.header,
		RunLog:       r.runLog,
	})
	if err != nil {
		return err
	}
	r.tests = append(r.tests, t)
	r.runLog.Info("test finished", "id", t.ID, "status", t.Status().String())

	for _, sink := range r.sinks {
		if err := sink.WriteTestResult(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Interpreter) configureTest(t *testcase.Test, args string, lineNo int) error {
	pairs, err := ParseArgs(args)
	if err != nil {
		return err
	}
	for _, kv := range pairs {
		if err := applyTestArg(t, kv); err != nil {
			return cerr.Newf(cerr.Parse, "line %d: %s", lineNo, err.Error())
		}
	}
	return nil
}

func applyTestArg(t *testcase.Test, kv KV) error {
	switch kv.Key {
	case "name":
		t.Name = kv.Value
	case "points":
		points, err := strconv.ParseFloat(kv.Value, 64)
		if err != nil {
			return fmt.Errorf("bad points value %q", kv.Value)
		}
		t.Points = points
	case "args":
		t.Args = kv.Value
	case "hidden":
		return parseBoolArg(kv, &t.Hidden)
	case "match_case":
		return parseBoolArg(kv, &t.MatchCase)
	case "match_space":
		return parseBoolArg(kv, &t.MatchSpace)
	case "run_main":
		return parseBoolArg(kv, &t.CallMain)
	case "timeout":
		seconds, err := strconv.ParseFloat(kv.Value, 64)
		if err != nil {
			return fmt.Errorf("bad timeout value %q", kv.Value)
		}
		t.TimeoutSec = seconds
	case "exit_code":
		code, err := strconv.Atoi(kv.Value)
		if err != nil {
			return fmt.Errorf("bad exit_code value %q", kv.Value)
		}
		t.ExpectExitCode = code
	case "input":
		t.InputFile = kv.Value
	case "expect":
		t.ExpectFile = kv.Value
	case "output":
		t.OutputFile = kv.Value
	case "code_file":
		t.CodeFile = kv.Value
	case "result":
		t.ResultFile = kv.Value
	case "compile":
		t.CompileFile = kv.Value
	case "cpp":
		t.CPPFile = kv.Value
	case "exe":
		t.ExeFile = kv.Value
	case "error":
		t.ErrorFile = kv.Value
	default:
		return fmt.Errorf(":TestCase: unknown argument key %q", kv.Key)
	}
	return nil
}

func parseBoolArg(kv KV, dst *bool) error {
	value, err := strconv.ParseBool(kv.Value)
	if err != nil {
		return fmt.Errorf("bad %s value %q", kv.Key, kv.Value)
	}
	*dst = value
	return nil
}

// finish writes summaries to every sink, closes them, and records the run
// manifest.
func (r *Interpreter) finish() error {
	if err := r.ensureInit(); err != nil {
		return err
	}
	for _, sink := range r.sinks {
		if err := sink.WriteSummary(r.tests); err != nil {
			return err
		}
		if err := sink.Close(); err != nil {
			return err
		}
	}
	if err := report.WriteManifest(r.manifestPath(), r.runID, r.path, r.tests); err != nil {
		return err
	}
	r.runLog.Info("run complete", "tests", len(r.tests))
	return nil
}

func (r *Interpreter) closeRunLog() {
	if r.runLogFile != nil {
		_ = r.runLogFile.Close()
	}
}
