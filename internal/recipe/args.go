package recipe

import (
	"strconv"
	"strings"

	"github.com/mercere99/emperfect/pkg/cerr"
)

// KV is one key=value assignment from a directive's argument tail.
type KV struct {
	Key   string // lowercased
	Value string // unquoted when the source was double-quoted
}

// ParseArgs splits a directive's argument tail on commas that sit outside
// double quotes, then parses each piece as key=value. Values may be bare,
// numeric, or double-quoted with standard escapes.
func ParseArgs(args string) ([]KV, error) {
	var pairs []KV
	for _, piece := range splitOutsideQuotes(args, ',') {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		eq := strings.Index(piece, "=")
		if eq < 0 {
			return nil, cerr.Newf(cerr.Parse, "expected key=value, found %q", piece)
		}
		key := strings.ToLower(strings.TrimSpace(piece[:eq]))
		if key == "" {
			return nil, cerr.Newf(cerr.Parse, "empty key in argument %q", piece)
		}
		value := strings.TrimSpace(piece[eq+1:])
		if strings.HasPrefix(value, `"`) {
			unquoted, err := strconv.Unquote(value)
			if err != nil {
				return nil, cerr.New(cerr.Parse, "bad quoted value "+value, err)
			}
			value = unquoted
		}
		pairs = append(pairs, KV{Key: key, Value: value})
	}
	return pairs, nil
}

// splitOutsideQuotes splits s at sep, treating separators inside double
// quotes (honoring backslash escapes) as literal.
func splitOutsideQuotes(s string, sep byte) []string {
	var pieces []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inQuote && ch == '\\' && i+1 < len(s):
			cur.WriteByte(ch)
			i++
			cur.WriteByte(s[i])
			continue
		case ch == '"':
			inQuote = !inQuote
		case ch == sep && !inQuote:
			pieces = append(pieces, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	pieces = append(pieces, cur.String())
	return pieces
}
