package report

import (
	"fmt"
	"html"
	"io"
	"math"

	"github.com/mercere99/emperfect/internal/testcase"
)

// Totals aggregates the run for summaries and the manifest.
type Totals struct {
	Earned float64
	Points float64
}

func SumPoints(tests []*testcase.Test) Totals {
	var totals Totals
	for _, t := range tests {
		totals.Earned += t.EarnedPoints()
		totals.Points += t.Points
	}
	return totals
}

// Percent is the integer score for the whole run. A recipe that assigns no
// points grades as 100.
func Percent(tests []*testcase.Test) int {
	totals := SumPoints(tests)
	if totals.Points == 0 {
		return 100
	}
	return int(math.Round(100 * totals.Earned / totals.Points))
}

// WriteSummary emits the end-of-run block appropriate for the sink's detail
// level: the full table at summary and above, the bare score or percent for
// the score-only and percent-only levels, nothing below that.
func (s *Sink) WriteSummary(tests []*testcase.Test) error {
	if !s.detail.HasPercent() {
		return nil
	}
	w, err := s.writer()
	if err != nil {
		return err
	}

	totals := SumPoints(tests)
	percent := Percent(tests)

	if !s.detail.HasSummary() {
		if s.detail.HasScore() {
			fmt.Fprintf(w, "%g of %g\n", totals.Earned, totals.Points)
		} else {
			fmt.Fprintf(w, "%d%%\n", percent)
		}
		return nil
	}

	if s.encoding == EncodingHTML {
		s.writeSummaryHTML(w, tests, totals, percent)
	} else {
		s.writeSummaryText(w, tests, totals, percent)
	}
	return nil
}

func (s *Sink) writeSummaryText(w io.Writer, tests []*testcase.Test, totals Totals, percent int) {
	fmt.Fprint(w, "== Summary ==\n")
	var checks, passed, failed int
	for _, t := range tests {
		c, p, f := t.CountChecks()
		checks += c
		passed += p
		failed += f
		fmt.Fprintf(w, "  %-30s %-38s checks: %d (passed %d, failed %d)  %g / %g\n",
			t.Name, t.Status().String(), c, p, f, t.EarnedPoints(), t.Points)
	}
	fmt.Fprintf(w, "  %-30s %-38s checks: %d (passed %d, failed %d)  %g / %g\n",
		"TOTAL", "", checks, passed, failed, totals.Earned, totals.Points)
	fmt.Fprintf(w, "Final score: %d%%\n", percent)
}

func (s *Sink) writeSummaryHTML(w io.Writer, tests []*testcase.Test, totals Totals, percent int) {
	fmt.Fprint(w, "<h2>Summary</h2>\n<table border=\"1\">\n")
	fmt.Fprint(w, "<tr><th>Test</th><th>Status</th><th>Checks</th><th>Passed</th><th>Failed</th><th>Score</th></tr>\n")
	var checks, passed, failed int
	for _, t := range tests {
		c, p, f := t.CountChecks()
		checks += c
		passed += p
		failed += f
		fmt.Fprintf(w,
			"<tr><td>%s</td><td style=\"color: %s\">%s</td><td>%d</td><td>%d</td><td>%d</td><td>%g / %g</td></tr>\n",
			html.EscapeString(t.Name), statusHTMLColor(t.Status()),
			html.EscapeString(t.Status().String()), c, p, f, t.EarnedPoints(), t.Points)
	}
	fmt.Fprintf(w,
		"<tr><td><b>TOTAL</b></td><td></td><td>%d</td><td>%d</td><td>%d</td><td><b>%g / %g</b></td></tr>\n",
		checks, passed, failed, totals.Earned, totals.Points)
	fmt.Fprint(w, "</table>\n")
	fmt.Fprintf(w, "<p><b>Final score: %d%%</b></p>\n", percent)
}
