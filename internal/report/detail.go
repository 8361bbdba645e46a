package report

import (
	"strings"

	"github.com/mercere99/emperfect/pkg/cerr"
)

// Detail is the ordinal controlling how much per-test information a sink
// emits. Every predicate below is a pure function of this one ordinal.
type Detail int

const (
	DetailNone Detail = iota
	DetailPercent
	DetailScore
	DetailSummary
	DetailStudent
	DetailTeacher
	DetailFull
	DetailDebug
)

var detailNames = map[string]Detail{
	"none":    DetailNone,
	"percent": DetailPercent,
	"score":   DetailScore,
	"summary": DetailSummary,
	"student": DetailStudent,
	"teacher": DetailTeacher,
	"full":    DetailFull,
	"debug":   DetailDebug,
}

func ParseDetail(name string) (Detail, error) {
	detail, ok := detailNames[strings.ToLower(name)]
	if !ok {
		return 0, cerr.Newf(cerr.Parse, "unknown detail level %q", name)
	}
	return detail, nil
}

func (d Detail) String() string {
	for name, detail := range detailNames {
		if detail == d {
			return name
		}
	}
	return "unknown"
}

func (d Detail) HasPercent() bool       { return d >= DetailPercent }
func (d Detail) HasScore() bool         { return d >= DetailScore }
func (d Detail) HasSummary() bool       { return d >= DetailSummary }
func (d Detail) HasResults() bool       { return d >= DetailStudent }
func (d Detail) HasFailedDetails() bool { return d >= DetailStudent }
func (d Detail) HasHiddenDetails() bool { return d >= DetailTeacher }
func (d Detail) HasPassedDetails() bool { return d >= DetailFull }
func (d Detail) HasDebug() bool         { return d == DetailDebug }
