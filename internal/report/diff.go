package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// diff span colors: insertions green, deletions coral, kept text light gray.
const (
	diffInsertColor = "green"
	diffDeleteColor = "coral"
	diffKeepColor   = "lightgray"
)

// HTMLDiff renders an inline character diff from the student's output to the
// expected output as an HTML table with a single preformatted cell. A span is
// opened on every edit-type change and closed on the next change or at the
// end of the script.
func HTMLDiff(actual, expected string) string {
	matcher := difflib.NewMatcher(splitChars(actual), splitChars(expected))

	var b strings.Builder
	b.WriteString("<table><tr><td><pre>")

	spanOpen := false
	emit := func(colorName, text string) {
		if text == "" {
			return
		}
		if spanOpen {
			b.WriteString("</span>")
		}
		fmt.Fprintf(&b, "<span style=\"color: %s\">", colorName)
		spanOpen = true
		b.WriteString(text)
	}

	for _, op := range matcher.GetOpCodes() {
		kept := escapeChars(actual, op.I1, op.I2, false)
		removed := escapeChars(actual, op.I1, op.I2, true)
		inserted := escapeChars(expected, op.J1, op.J2, false)
		switch op.Tag {
		case 'e':
			emit(diffKeepColor, kept)
		case 'd':
			emit(diffDeleteColor, removed)
		case 'i':
			emit(diffInsertColor, inserted)
		case 'r':
			emit(diffDeleteColor, removed)
			emit(diffInsertColor, inserted)
		}
	}
	if spanOpen {
		b.WriteString("</span>")
	}
	b.WriteString("</pre></td></tr></table>\n")
	return b.String()
}

// UnifiedDiff renders a line-level unified diff for text sinks.
func UnifiedDiff(actual, expected string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(actual),
		B:        difflib.SplitLines(expected),
		FromFile: "your output",
		ToFile:   "expected output",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}

func splitChars(s string) []string {
	chars := make([]string, len(s))
	for i := 0; i < len(s); i++ {
		chars[i] = s[i : i+1]
	}
	return chars
}

// escapeChars renders s[from:to] for HTML. Deleted NUL bytes become the
// literal [NULL] marker so invisible corruption shows up in reports.
func escapeChars(s string, from, to int, deleted bool) string {
	var b strings.Builder
	for i := from; i < to && i < len(s); i++ {
		ch := s[i]
		if ch == 0 && deleted {
			b.WriteString("[NULL]")
			continue
		}
		b.WriteString(html.EscapeString(string(ch)))
	}
	return b.String()
}
