// Package check turns CHECK / CHECK_TYPE macros inside a test body into
// instrumented student-language code, and synthesizes the complete
// translation unit around the rewritten body.
//
// The rewriter is textual and deliberately shallow: balanced-paren matching
// with string and group awareness, one relational-operator scan, and an
// outright rejection of boolean combinators. It never parses the student
// language.
package check

import (
	"fmt"
	"strings"

	"github.com/mercere99/emperfect/internal/testcase"
	"github.com/mercere99/emperfect/pkg/cerr"
)

// relationalOps in recognition order: two-character forms first so that "<="
// is never split as "<" followed by garbage.
var relationalOps = []string{"==", "!=", "<=", ">=", "<", ">"}

// Rewrite replaces every CHECK(...) and CHECK_TYPE(...) occurrence in body
// with an instrumented block, appending one Check record per occurrence to
// the test. Non-macro text is preserved byte for byte.
func Rewrite(body string, t *testcase.Test) (string, error) {
	var out strings.Builder
	pos := 0
	for {
		start, name := findMacro(body, pos)
		if start < 0 {
			out.WriteString(body[pos:])
			return out.String(), nil
		}
		out.WriteString(body[pos:start])

		open := start + len(name) - 1
		closing, err := matchParen(body, open)
		if err != nil {
			return "", cerr.Newf(cerr.Expression,
				"test %q: unbalanced parentheses in %s at offset %d", t.Name, name, start)
		}
		args := splitTopArgs(body[open+1 : closing])

		var block string
		switch name {
		case "CHECK_TYPE(":
			block, err = rewriteCheckType(t, args)
		default:
			block, err = rewriteCheck(t, args)
		}
		if err != nil {
			return "", err
		}
		out.WriteString(block)
		pos = closing + 1
	}
}

// findMacro locates the next CHECK( or CHECK_TYPE( occurrence at or after
// pos, honoring identifier boundaries. It returns the start offset and the
// matched prefix including the opening paren, or -1.
func findMacro(body string, pos int) (int, string) {
	for i := pos; i < len(body); i++ {
		if !strings.HasPrefix(body[i:], "CHECK") {
			continue
		}
		if i > 0 && isIdentChar(body[i-1]) {
			continue
		}
		rest := body[i+len("CHECK"):]
		switch {
		case strings.HasPrefix(rest, "_TYPE("):
			return i, "CHECK_TYPE("
		case strings.HasPrefix(rest, "("):
			return i, "CHECK("
		}
	}
	return -1, ""
}

func isIdentChar(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}

// matchParen returns the offset of the ')' matching the '(' at open. Double
// quotes suspend depth tracking; backslash escapes inside them are honored.
func matchParen(s string, open int) (int, error) {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		ch := s[i]
		if inQuote {
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inQuote = false
			}
			continue
		}
		switch ch {
		case '"':
			inQuote = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("unbalanced parentheses")
}

// splitTopArgs splits an argument list at depth-zero commas. Commas inside
// double-quoted strings and inside any () or {} group are literal.
func splitTopArgs(s string) []string {
	var args []string
	var cur strings.Builder
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inQuote {
			cur.WriteByte(ch)
			if ch == '\\' && i+1 < len(s) {
				i++
				cur.WriteByte(s[i])
			} else if ch == '"' {
				inQuote = false
			}
			continue
		}
		switch ch {
		case '"':
			inQuote = true
		case '(', '{':
			depth++
		case ')', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(cur.String()))
				cur.Reset()
				continue
			}
		}
		cur.WriteByte(ch)
	}
	last := strings.TrimSpace(cur.String())
	if last != "" || len(args) > 0 {
		args = append(args, last)
	}
	return args
}

// splitComparison scans expr for relational operators at depth zero, outside
// quotes. It returns lhs, op, rhs; an empty op means the whole expression is
// the lhs and the check is a truthiness test.
func splitComparison(expr string) (lhs, op, rhs string, err error) {
	type match struct {
		pos int
		op  string
	}
	var found []match
	depth := 0
	inQuote := false
	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if inQuote {
			if ch == '\\' {
				i++
			} else if ch == '"' {
				inQuote = false
			}
			continue
		}
		switch ch {
		case '"':
			inQuote = true
			continue
		case '(', '{':
			depth++
			continue
		case ')', '}':
			depth--
			continue
		}
		if depth != 0 {
			continue
		}
		for _, candidate := range relationalOps {
			if strings.HasPrefix(expr[i:], candidate) {
				found = append(found, match{pos: i, op: candidate})
				i += len(candidate) - 1
				break
			}
		}
	}
	switch len(found) {
	case 0:
		return expr, "", "", nil
	case 1:
		m := found[0]
		return strings.TrimSpace(expr[:m.pos]), m.op,
			strings.TrimSpace(expr[m.pos+len(m.op):]), nil
	default:
		return "", "", "", fmt.Errorf("more than one relational operator")
	}
}

func rewriteCheck(t *testcase.Test, args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", cerr.Newf(cerr.Expression, "test %q: empty CHECK", t.Name)
	}
	expr := strings.TrimSpace(args[0])
	if strings.Contains(expr, "&&") || strings.Contains(expr, "||") {
		return "", cerr.Newf(cerr.Expression,
			"test %q: CHECK may not contain && or || (use separate CHECKs): %s", t.Name, expr)
	}
	lhs, op, rhs, err := splitComparison(expr)
	if err != nil {
		return "", cerr.Newf(cerr.Expression, "test %q: %s in CHECK(%s)", t.Name, err.Error(), expr)
	}

	c := &testcase.Check{
		ID:         len(t.Checks),
		Kind:       testcase.CheckAssert,
		Expr:       expr,
		LHS:        lhs,
		Comparator: op,
		RHS:        rhs,
		Args:       args[1:],
	}
	t.Checks = append(t.Checks, c)
	return emitCheck(c), nil
}

func rewriteCheckType(t *testcase.Test, args []string) (string, error) {
	if len(args) < 2 {
		return "", cerr.Newf(cerr.Expression,
			"test %q: CHECK_TYPE requires an expression and a type", t.Name)
	}
	expr := strings.TrimSpace(args[0])
	typ := strings.TrimSpace(args[1])
	c := &testcase.Check{
		ID:         len(t.Checks),
		Kind:       testcase.CheckTypeCompare,
		Expr:       expr + ", " + typ,
		LHS:        expr,
		Comparator: testcase.CompareType,
		RHS:        typ,
	}
	t.Checks = append(t.Checks, c)
	return emitCheckType(c), nil
}

func emitCheck(c *testcase.Check) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{\n")
	if c.Comparator == "" {
		fmt.Fprintf(&b, "      auto && _emperfect_lhs = (%s);\n", c.LHS)
		fmt.Fprintf(&b, "      bool _emperfect_success = static_cast<bool>(_emperfect_lhs);\n")
	} else {
		fmt.Fprintf(&b, "      auto && _emperfect_lhs = (%s);\n", c.LHS)
		fmt.Fprintf(&b, "      auto && _emperfect_rhs = (%s);\n", c.RHS)
		fmt.Fprintf(&b, "      bool _emperfect_success = (_emperfect_lhs %s _emperfect_rhs);\n", c.Comparator)
	}
	fmt.Fprintf(&b, "      emperfect::all_passed = emperfect::all_passed && _emperfect_success;\n")
	fmt.Fprintf(&b, "      std::string _emperfect_msg;\n")
	fmt.Fprintf(&b, "      if (!_emperfect_success) {\n")
	fmt.Fprintf(&b, "        std::stringstream _emperfect_msg_ss;\n")
	fmt.Fprintf(&b, "        _emperfect_msg_ss%s;\n", streamFragments(c.Args))
	fmt.Fprintf(&b, "        _emperfect_msg = _emperfect_msg_ss.str();\n")
	fmt.Fprintf(&b, "      }\n")
	fmt.Fprintf(&b, "      _emperfect_out << \":CHECK: \" << %d << \"\\n\";\n", c.ID)
	fmt.Fprintf(&b, "      _emperfect_out << \":TEST: \" << %s << \"\\n\";\n", Literal(c.Expr))
	fmt.Fprintf(&b, "      _emperfect_out << \":RESULT: \" << (_emperfect_success ? 1 : 0) << \"\\n\";\n")
	fmt.Fprintf(&b, "      _emperfect_out << \":LHS: \" << emperfect::ToLiteral(_emperfect_lhs) << \"\\n\";\n")
	if c.Comparator == "" {
		fmt.Fprintf(&b, "      _emperfect_out << \":RHS: \" << \"\\n\";\n")
	} else {
		fmt.Fprintf(&b, "      _emperfect_out << \":RHS: \" << emperfect::ToLiteral(_emperfect_rhs) << \"\\n\";\n")
	}
	fmt.Fprintf(&b, "      _emperfect_out << \":MSG: \" << emperfect::Escape(_emperfect_msg) << \"\\n\";\n")
	fmt.Fprintf(&b, "    }")
	return b.String()
}

func emitCheckType(c *testcase.Check) string {
	var b strings.Builder
	fmt.Fprintf(&b, "{\n")
	fmt.Fprintf(&b, "      bool _emperfect_success = std::is_same<decltype(%s), %s>::value;\n", c.LHS, c.RHS)
	fmt.Fprintf(&b, "      emperfect::all_passed = emperfect::all_passed && _emperfect_success;\n")
	fmt.Fprintf(&b, "      _emperfect_out << \":CHECK: \" << %d << \"\\n\";\n", c.ID)
	fmt.Fprintf(&b, "      _emperfect_out << \":TEST: \" << %s << \"\\n\";\n", Literal(c.Expr))
	fmt.Fprintf(&b, "      _emperfect_out << \":RESULT: \" << (_emperfect_success ? 1 : 0) << \"\\n\";\n")
	fmt.Fprintf(&b, "      _emperfect_out << \":LHS: \" << emperfect::GetTypeName<decltype(%s)>() << \"\\n\";\n", c.LHS)
	fmt.Fprintf(&b, "      _emperfect_out << \":RHS: \" << emperfect::GetTypeName<%s>() << \"\\n\";\n", c.RHS)
	fmt.Fprintf(&b, "      _emperfect_out << \":MSG: \" << (_emperfect_success ? \"\" : \"type mismatch\") << \"\\n\";\n")
	fmt.Fprintf(&b, "    }")
	return b.String()
}

// streamFragments renders the message fragments of a CHECK as a chain of
// stream insertions.
func streamFragments(frags []string) string {
	if len(frags) == 0 {
		return ` << ""`
	}
	var b strings.Builder
	for _, frag := range frags {
		fmt.Fprintf(&b, " << %s", frag)
	}
	return b.String()
}

// Literal renders s as a double-quoted student-language string literal.
func Literal(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}
