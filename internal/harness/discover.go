package harness

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// Failure describes one scenario that did not pass.
type Failure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

// Summary aggregates a batch of scenario runs.
type Summary struct {
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
}

// FindScenarios returns every .yaml and .yml file under dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// RunAll loads and runs each scenario file. A file that cannot be loaded
// or run counts as a failure.
func RunAll(paths []string) *Summary {
	sum := &Summary{}
	for _, path := range paths {
		sum.Total++

		s, err := LoadScenario(path)
		if err != nil {
			sum.fail(path, path, err.Error())
			continue
		}
		res, err := Run(s)
		if err != nil {
			sum.fail(s.Name, path, err.Error())
			continue
		}
		if !res.Pass {
			sum.fail(s.Name, path, res.Errors...)
			continue
		}
		sum.Passed++
	}
	return sum
}

func (s *Summary) fail(name, path string, errs ...string) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{Scenario: name, Path: path, Errors: errs})
}
