package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration artifact name used when a scenario
// does not set one.
const DefaultConfigFile = "tallies.xml"

// Scenario is the per-run context: where artifacts live, how the result is
// found, and how strictly it is compared. Nothing about a run is taken from
// process-wide state, so scenarios with distinct working directories can
// run concurrently.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Builder names a registered Go builder. Exactly one of Builder and Spec
	// is set in scenario files.
	Builder string `yaml:"builder,omitempty"`

	// Spec is the path of a CUE specification file.
	Spec string `yaml:"spec,omitempty"`

	// WorkDir is where the configuration is written and the engine runs.
	// An empty WorkDir makes Run use a fresh temporary directory that is
	// removed afterwards.
	WorkDir string `yaml:"work_dir,omitempty"`

	// ConfigFile is the configuration artifact name inside WorkDir.
	ConfigFile string `yaml:"config_file,omitempty"`

	// ResultPattern is a glob, relative to WorkDir, that must match exactly
	// one result artifact after the engine exits.
	ResultPattern string `yaml:"result_pattern"`

	// Reference is the stored result the artifact is compared against.
	Reference string `yaml:"reference"`

	// InputsReference optionally holds the expected serialized configuration.
	InputsReference string `yaml:"inputs_reference,omitempty"`

	Tolerance Tolerance      `yaml:"tolerance"`
	Engine    EngineSettings `yaml:"engine,omitempty"`

	// Cleanup lists extra globs, relative to WorkDir, removed after the run.
	Cleanup []string `yaml:"cleanup,omitempty"`
}

// Tolerance bounds the accepted difference between a reference value e and
// an actual value a: |a-e| <= Abs + Rel*|e|.
type Tolerance struct {
	Abs float64 `yaml:"abs"`
	Rel float64 `yaml:"rel"`
}

// EngineSettings customize the engine invocation for one scenario.
type EngineSettings struct {
	// Command overrides the harness-wide engine executable.
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// Isolated hides the host environment from the engine; only Env is set.
	Isolated bool `yaml:"isolated,omitempty"`
}

func (s *Scenario) configFile() string {
	if s.ConfigFile == "" {
		return DefaultConfigFile
	}
	return s.ConfigFile
}

// LoadScenario reads and validates a scenario file. Relative paths in the
// file are resolved against the file's directory, and an unset work_dir
// defaults to that directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	baseDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scenario directory: %w", err)
	}
	if scenario.WorkDir == "" {
		scenario.WorkDir = "."
	}
	scenario.WorkDir = resolve(baseDir, scenario.WorkDir)
	scenario.Spec = resolve(baseDir, scenario.Spec)
	scenario.Reference = resolve(baseDir, scenario.Reference)
	scenario.InputsReference = resolve(baseDir, scenario.InputsReference)

	if err := scenario.validateSource(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func (s *Scenario) validateSource() error {
	switch {
	case s.Builder == "" && s.Spec == "":
		return fmt.Errorf("one of builder or spec is required")
	case s.Builder != "" && s.Spec != "":
		return fmt.Errorf("builder and spec are mutually exclusive")
	}
	if s.Spec != "" {
		if _, err := os.Stat(s.Spec); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", s.Spec)
		}
	}
	return nil
}

// Validate checks the fields Run depends on.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.ResultPattern == "" {
		return fmt.Errorf("result_pattern is required")
	}
	if _, err := filepath.Match(s.ResultPattern, ""); err != nil {
		return fmt.Errorf("result_pattern %q: %w", s.ResultPattern, err)
	}
	for i, p := range s.Cleanup {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("cleanup[%d] %q: %w", i, p, err)
		}
	}
	if s.Reference == "" {
		return fmt.Errorf("reference is required")
	}
	if filepath.Base(s.configFile()) != s.configFile() {
		return fmt.Errorf("config_file must be a bare file name, got %q", s.ConfigFile)
	}
	if s.Tolerance.Abs < 0 || s.Tolerance.Rel < 0 {
		return fmt.Errorf("tolerance must be non-negative")
	}
	return nil
}
