package recipe

import (
	"sort"
	"strings"

	"github.com/mercere99/emperfect/pkg/cerr"
)

// Vars is the variable store for one recipe run. Names are lowercase. The
// store is shared by every component of a run but always passed explicitly;
// the pipeline overwrites the per-test keys at the top of each test.
type Vars map[string]string

// NewVars seeds the store with the run-level defaults.
func NewVars() Vars {
	return Vars{
		"dir":   ".emperfect",
		"debug": "false",
		"log":   "Log.txt",
	}
}

func (v Vars) Set(name, value string) {
	v[strings.ToLower(name)] = value
}

func (v Vars) Get(name string) (string, bool) {
	value, ok := v[strings.ToLower(name)]
	return value, ok
}

// Load parses a comma-separated list of key=value assignments into the store
// and returns the keys newly set by this call, in argument order.
func (v Vars) Load(args string) ([]string, error) {
	pairs, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		v[kv.Key] = kv.Value
		keys = append(keys, kv.Key)
	}
	return keys, nil
}

// Apply expands every ${name} in line, looking names up in the store. A
// missing closing brace or an unknown name is fatal; the offending line is
// included in the error.
func (v Vars) Apply(line string) (string, error) {
	var out strings.Builder
	rest := line
	for {
		idx := strings.Index(rest, "${")
		if idx < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:idx])
		rest = rest[idx+2:]
		end := strings.Index(rest, "}")
		if end < 0 {
			return "", cerr.Newf(cerr.Parse, "unterminated ${ in line: %s", line)
		}
		name := strings.ToLower(rest[:end])
		value, ok := v[name]
		if !ok {
			return "", cerr.Newf(cerr.Parse, "unknown variable %q in line: %s", name, line)
		}
		out.WriteString(value)
		rest = rest[end+1:]
	}
}

// Names returns the defined variable names, sorted, for debug logging.
func (v Vars) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
