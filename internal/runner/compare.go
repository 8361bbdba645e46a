package runner

import "strings"

// normalizeOutput applies the test's comparison policy to a file's lines.
// With match_space=false all whitespace is stripped, which also erases line
// structure; with match_case=false only ASCII case is folded. Under the
// default policy all-empty lines are dropped from both sides.
func normalizeOutput(lines []string, matchCase, matchSpace bool) []string {
	work := make([]string, len(lines))
	copy(work, lines)

	if !matchCase {
		for i, line := range work {
			work[i] = asciiLower(line)
		}
	}

	if !matchSpace {
		joined := stripWhitespace(strings.Join(work, ""))
		if joined == "" {
			return nil
		}
		return []string{joined}
	}

	var out []string
	for _, line := range work {
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// asciiLower folds A-Z only; comparison with match_case=false is defined to
// ignore ASCII case and nothing else.
func asciiLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n', '\v', '\f':
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
