package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/etamimi93/openmc/internal/compiler"
	"github.com/etamimi93/openmc/internal/harness"
	"github.com/etamimi93/openmc/internal/scenarios"
)

// LoadError reports a scenario file that could not be turned into a job.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// loadJobs expands args (scenario files or directories) and loads every
// scenario with its builder. All load errors are returned together.
func loadJobs(args []string, filter string) ([]harness.Job, []error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, []error{&LoadError{Path: arg, Err: err}}
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := findScenarioFiles(arg, filter)
		if err != nil {
			return nil, []error{&LoadError{Path: arg, Err: err}}
		}
		files = append(files, found...)
	}

	var (
		jobs []harness.Job
		errs []error
	)
	for _, path := range files {
		job, err := loadJob(path)
		if err != nil {
			errs = append(errs, &LoadError{Path: path, Err: err})
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, errs
}

// loadJob loads a scenario file and resolves its builder.
func loadJob(path string) (harness.Job, error) {
	sc, err := harness.LoadScenario(path)
	if err != nil {
		return harness.Job{}, err
	}
	b, err := resolveBuilder(sc)
	if err != nil {
		return harness.Job{}, err
	}
	return harness.Job{Scenario: sc, Builder: b}, nil
}

func resolveBuilder(sc *harness.Scenario) (harness.Builder, error) {
	if sc.Builder != "" {
		b, ok := scenarios.Lookup(sc.Builder)
		if !ok {
			return nil, fmt.Errorf("unknown builder %q (available: %s)", sc.Builder, strings.Join(scenarios.Names(), ", "))
		}
		return b, nil
	}
	def, err := compiler.CompileFile(sc.Spec)
	if err != nil {
		return nil, err
	}
	return def, nil
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Reference summaries live next to scenarios and are not scenarios.
		if !isScenarioFile(path) {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			base := filepath.Base(path)
			name := strings.TrimSuffix(base, ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	sort.Strings(files)
	return files, err
}

// isScenarioFile reports whether a YAML file looks like a scenario rather
// than a reference summary.
func isScenarioFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "result_pattern:") {
			return true
		}
	}
	return false
}
