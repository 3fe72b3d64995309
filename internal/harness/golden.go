package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/etamimi93/openmc/internal/tally"
)

// RenderConfig builds a specification with b and returns its serialized
// configuration without touching the filesystem.
func RenderConfig(b Builder) ([]byte, error) {
	spec := tally.NewSpecification()
	if err := b.Build(spec); err != nil {
		return nil, err
	}
	return spec.Serialize()
}

// AssertGoldenConfig compares the configuration produced by b against the
// golden file testdata/golden/{name}.golden.
//
// To regenerate golden files, run the tests with -update.
func AssertGoldenConfig(t *testing.T, name string, b Builder) error {
	t.Helper()

	data, err := RenderConfig(b)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// transitionSnapshot is the deterministic part of a Result: run ids,
// timestamps and hashes are left out.
type transitionSnapshot struct {
	Scenario    string       `json:"scenario"`
	Verdict     State        `json:"verdict"`
	Transitions []Transition `json:"transitions"`
	Removed     []string     `json:"removed"`
	Errors      []string     `json:"errors"`
}

// AssertGoldenTransitions compares the state transitions, verdict, removed
// artifacts and error messages of result against testdata/golden/{name}.golden.
func AssertGoldenTransitions(t *testing.T, name string, result *Result) error {
	t.Helper()

	snap := transitionSnapshot{
		Scenario:    result.Scenario,
		Verdict:     result.Verdict,
		Transitions: result.Transitions,
		Removed:     result.Removed,
		Errors:      result.Errors,
	}
	if snap.Removed == nil {
		snap.Removed = []string{}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, append(data, '\n'))
	return nil
}
