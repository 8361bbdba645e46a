package report

import (
	"context"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mercere99/emperfect/internal/testcase"
	"github.com/mercere99/emperfect/pkg/cerr"
	"github.com/mercere99/emperfect/pkg/storage"
)

// manifest is the machine-readable record of one grading run, written next
// to the other artifacts so course tooling can collect grades without
// scraping reports.
type manifest struct {
	RunID  string         `yaml:"run_id"`
	Recipe string         `yaml:"recipe"`
	Tests  []manifestTest `yaml:"tests"`
	Earned float64        `yaml:"earned"`
	Points float64        `yaml:"points"`
	Score  int            `yaml:"percent"`
}

type manifestTest struct {
	ID     int     `yaml:"id"`
	Name   string  `yaml:"name"`
	Status string  `yaml:"status"`
	Checks int     `yaml:"checks"`
	Passed int     `yaml:"passed"`
	Failed int     `yaml:"failed"`
	Earned float64 `yaml:"earned"`
	Points float64 `yaml:"points"`
}

// WriteManifest records the run outcome as YAML through local storage, which
// writes atomically.
func WriteManifest(path, runID, recipePath string, tests []*testcase.Test) error {
	totals := SumPoints(tests)
	m := manifest{
		RunID:  runID,
		Recipe: recipePath,
		Earned: totals.Earned,
		Points: totals.Points,
		Score:  Percent(tests),
	}
	for _, t := range tests {
		checks, passed, failed := t.CountChecks()
		m.Tests = append(m.Tests, manifestTest{
			ID:     t.ID,
			Name:   t.Name,
			Status: t.Status().String(),
			Checks: checks,
			Passed: passed,
			Failed: failed,
			Earned: t.EarnedPoints(),
			Points: t.Points,
		})
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return cerr.New(cerr.Internal, "cannot marshal run manifest", err)
	}

	store, err := storage.NewLocalStorage(filepath.Dir(path))
	if err != nil {
		return cerr.New(cerr.Filesystem, "cannot open run directory for manifest", err)
	}
	if err := store.Write(context.Background(), filepath.Base(path), data); err != nil {
		return cerr.New(cerr.Filesystem, "cannot write run manifest", err)
	}
	return nil
}
