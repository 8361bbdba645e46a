package runner

import (
	"os"
	"strconv"
	"strings"

	"github.com/mercere99/emperfect/internal/testcase"
	"github.com/mercere99/emperfect/pkg/cerr"
)

// ParseResults reads the line-oriented results file a generated test wrote
// and distributes the records onto the test's checks. The first whitespace
// token of each line selects the field; the remainder is the value. Unknown
// tokens are fatal protocol errors.
//
// A missing file is not an error: a test that crashed during static
// initialization may never have opened it, and that shows up through the
// run exit code instead.
func ParseResults(path string, t *testcase.Test) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return cerr.New(cerr.Filesystem, "cannot read results file "+path, err)
	}

	var cur *testcase.Check
	var pending testcase.CheckResult
	flush := func() {
		if cur != nil {
			cur.Results = append(cur.Results, pending)
			cur = nil
		}
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		token, value := splitRecord(line)
		switch token {
		case ":CHECK:":
			flush()
			id, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || id < 0 || id >= len(t.Checks) {
				return cerr.Newf(cerr.Protocol,
					"results file %s: bad check id %q", path, value)
			}
			cur = t.Checks[id]
			pending = testcase.CheckResult{}
		case ":TEST:":
			// Expression echo; the harness already holds it from the rewrite.
		case ":RESULT:":
			pending.Passed = strings.TrimSpace(value) == "1"
		case ":LHS:":
			pending.LHS = value
		case ":RHS:":
			pending.RHS = value
		case ":MSG:":
			pending.Message = value
		case "SCORE":
			flush()
			score, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return cerr.Newf(cerr.Protocol,
					"results file %s: bad SCORE value %q", path, value)
			}
			t.Score = score
		default:
			return cerr.Newf(cerr.Protocol,
				"results file %s: unknown field %q", path, token)
		}
	}
	flush()
	return nil
}

// splitRecord divides a protocol line into its leading token and value.
func splitRecord(line string) (token, value string) {
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}
