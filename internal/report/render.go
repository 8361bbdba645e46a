package report

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/mercere99/emperfect/internal/testcase"
	"github.com/mercere99/emperfect/pkg/cerr"
)

// statusHTMLColor is the fixed per-status report color.
func statusHTMLColor(status testcase.Status) string {
	switch status {
	case testcase.StatusPassed:
		return "green"
	case testcase.StatusFailedCheck:
		return "red"
	case testcase.StatusFailedCompile:
		return "darkred"
	case testcase.StatusFailedTime:
		return "purple"
	}
	return "orangered"
}

func statusTextColor(status testcase.Status) *color.Color {
	switch status {
	case testcase.StatusPassed:
		return color.New(color.FgGreen)
	case testcase.StatusFailedCheck:
		return color.New(color.FgRed)
	case testcase.StatusFailedCompile:
		return color.New(color.FgRed, color.Bold)
	case testcase.StatusFailedTime:
		return color.New(color.FgMagenta)
	}
	return color.New(color.FgHiRed)
}

// WriteTestResult renders one finished test into the sink, honoring the
// sink's detail level and the test's hidden flag.
func (s *Sink) WriteTestResult(t *testcase.Test) error {
	if !s.detail.HasResults() {
		return nil
	}
	w, err := s.writer()
	if err != nil {
		return err
	}

	status := t.Status()
	title := fmt.Sprintf("Test Case %d: %s", t.ID, t.Name)
	if t.Hidden {
		title += " [HIDDEN]"
	}

	if s.encoding == EncodingHTML {
		fmt.Fprintf(w, "<h2>%s</h2>\n", html.EscapeString(title))
		fmt.Fprintf(w, "<p style=\"color: %s\"><b>%s</b></p>\n",
			statusHTMLColor(status), html.EscapeString(status.String()))
	} else {
		fmt.Fprintf(w, "---- %s ----\n", title)
		statusTextColor(status).Fprintf(w, "%s\n", status.String())
	}

	if t.Hidden && !s.detail.HasHiddenDetails() {
		fmt.Fprintln(w)
		return nil
	}

	showPassed := s.detail.HasPassedDetails()
	if status == testcase.StatusFailedCheck || showPassed {
		s.renderChecks(w, t)
	}
	if status != testcase.StatusPassed || showPassed {
		s.renderFile(w, "Test source", t.CPPFile)
	}
	if status == testcase.StatusFailedCompile {
		s.renderFile(w, "Compiler output", t.CompileFile)
	}
	if status == testcase.StatusFailedRun {
		s.renderFile(w, "Standard error", t.ErrorFile)
	}
	if status == testcase.StatusMissedError || status == testcase.StatusFailedOutput || showPassed {
		s.renderInvocation(w, t)
	}
	if status == testcase.StatusFailedRun || status == testcase.StatusFailedOutput {
		if err := s.renderOutputComparison(w, t); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}

func (s *Sink) renderChecks(w io.Writer, t *testcase.Test) {
	if s.encoding == EncodingHTML {
		fmt.Fprint(w, "<ul>\n")
	}
	for _, c := range t.Checks {
		s.renderCheck(w, c)
	}
	if s.encoding == EncodingHTML {
		fmt.Fprint(w, "</ul>\n")
	}
}

func (s *Sink) renderCheck(w io.Writer, c *testcase.Check) {
	verdict := "FAILED"
	if c.Passed() {
		verdict = "passed"
	}
	label := "CHECK"
	if c.Kind == testcase.CheckTypeCompare {
		label = "CHECK_TYPE"
	}

	if s.encoding == EncodingHTML {
		verdictColor := "red"
		if c.Passed() {
			verdictColor = "green"
		}
		fmt.Fprintf(w, "<li><code>%s(%s)</code> &mdash; <span style=\"color: %s\">%s</span>",
			label, html.EscapeString(c.Expr), verdictColor, verdict)
		for _, r := range c.Results {
			if r.Passed {
				continue
			}
			fmt.Fprintf(w, "<br>lhs: <code>%s</code>, rhs: <code>%s</code>",
				html.EscapeString(r.LHS), html.EscapeString(r.RHS))
			if r.Message != "" {
				fmt.Fprintf(w, " &mdash; %s", html.EscapeString(r.Message))
			}
		}
		if len(c.Results) == 0 {
			fmt.Fprint(w, "<br>(never executed)")
		}
		fmt.Fprint(w, "</li>\n")
		return
	}

	fmt.Fprintf(w, "  %s(%s) ... %s\n", label, c.Expr, verdict)
	for _, r := range c.Results {
		if r.Passed {
			continue
		}
		fmt.Fprintf(w, "    lhs: %s\n    rhs: %s\n", r.LHS, r.RHS)
		if r.Message != "" {
			fmt.Fprintf(w, "    message: %s\n", r.Message)
		}
	}
	if len(c.Results) == 0 {
		fmt.Fprint(w, "    (never executed)\n")
	}
}

// renderFile prints a labeled file's content as a preformatted block. An
// unreadable file is reported inline rather than failing the report.
func (s *Sink) renderFile(w io.Writer, label, path string) {
	data, err := os.ReadFile(path)
	content := strings.TrimRight(string(data), "\n")
	if err != nil {
		content = fmt.Sprintf("(unavailable: %s)", path)
	}
	if s.encoding == EncodingHTML {
		fmt.Fprintf(w, "<h3>%s</h3>\n<pre>%s</pre>\n", html.EscapeString(label), html.EscapeString(content))
		return
	}
	fmt.Fprintf(w, "%s:\n", label)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
}

func (s *Sink) renderInvocation(w io.Writer, t *testcase.Test) {
	args := t.Args
	if args == "" {
		args = "(none)"
	}
	input := t.InputFile
	if input == "" {
		input = "(none)"
	}
	if s.encoding == EncodingHTML {
		fmt.Fprintf(w, "<p>Command-line arguments: <code>%s</code><br>Input file: <code>%s</code></p>\n",
			html.EscapeString(args), html.EscapeString(input))
		return
	}
	fmt.Fprintf(w, "  Command-line arguments: %s\n  Input file: %s\n", args, input)
}

func (s *Sink) renderOutputComparison(w io.Writer, t *testcase.Test) error {
	if t.ExpectFile == "" {
		return nil
	}
	actual, err := os.ReadFile(t.OutputFile)
	if err != nil {
		return cerr.New(cerr.Filesystem, "cannot read "+t.OutputFile, err)
	}
	expected, err := os.ReadFile(t.ExpectFile)
	if err != nil {
		return cerr.New(cerr.Filesystem, "cannot read "+t.ExpectFile, err)
	}

	if s.encoding == EncodingHTML {
		fmt.Fprint(w, "<h3>Output vs. expected</h3>\n")
		fmt.Fprint(w, "<table border=\"1\"><tr><th>Your output</th><th>Expected output</th></tr>\n")
		fmt.Fprintf(w, "<tr><td><pre>%s</pre></td><td><pre>%s</pre></td></tr></table>\n",
			html.EscapeString(string(actual)), html.EscapeString(string(expected)))
		fmt.Fprint(w, HTMLDiff(string(actual), string(expected)))
		return nil
	}

	fmt.Fprint(w, "  Your output:\n")
	for _, line := range strings.Split(strings.TrimRight(string(actual), "\n"), "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprint(w, "  Expected output:\n")
	for _, line := range strings.Split(strings.TrimRight(string(expected), "\n"), "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	fmt.Fprint(w, UnifiedDiff(string(actual), string(expected)))
	return nil
}
