package compiler

import (
	"fmt"

	"github.com/etamimi93/openmc/internal/tally"
)

// Definition is a compiled specification file. It can build any number of
// independent specifications.
type Definition struct {
	Meshes  []tally.Mesh
	Filters []NamedFilter // declaration order
	Tallies []TallyDef

	filterIndex map[string]int
}

// NamedFilter is a filter declared under a name. Filters are immutable, so
// every built specification shares them.
type NamedFilter struct {
	Name   string
	Filter *tally.Filter
}

// TallyDef is a tally whose filters are given by name.
type TallyDef struct {
	ID        int
	Name      string
	Estimator tally.Estimator
	Nuclides  []string
	Filters   []string
	Scores    []tally.Score
}

// Filter returns the filter declared under name.
func (d *Definition) Filter(name string) (*tally.Filter, bool) {
	i, ok := d.filterIndex[name]
	if !ok {
		return nil, false
	}
	return d.Filters[i].Filter, true
}

// Build populates spec with the definition's meshes and tallies.
// It satisfies harness.Builder.
func (d *Definition) Build(spec *tally.Specification) error {
	for _, m := range d.Meshes {
		if err := spec.AddMesh(m); err != nil {
			return err
		}
	}

	for _, td := range d.Tallies {
		t := tally.NewTally(td.ID)
		if err := t.SetName(td.Name); err != nil {
			return err
		}
		if err := t.SetEstimator(td.Estimator); err != nil {
			return err
		}
		if err := t.SetNuclides(td.Nuclides...); err != nil {
			return err
		}

		for _, name := range td.Filters {
			f, ok := d.Filter(name)
			if !ok {
				return &tally.UnresolvedReferenceError{TallyID: td.ID, Ref: fmt.Sprintf("filter %q", name)}
			}
			if err := t.AddFilter(f); err != nil {
				return err
			}
		}
		for _, s := range td.Scores {
			if err := t.AddScore(s); err != nil {
				return err
			}
		}
		if err := spec.AddTally(t); err != nil {
			return err
		}
	}
	return nil
}
