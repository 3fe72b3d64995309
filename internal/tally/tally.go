package tally

import (
	"fmt"
	"slices"
)

// Tally requests accumulation of one or more scores over the cross product
// of its filters' bins. Filter order is significant: the first filter is the
// outermost bin index in the engine's output.
//
// The id is fixed at construction. Everything else may change only until
// the tally is serialized.
type Tally struct {
	id        int
	name      string
	estimator Estimator
	nuclides  []string

	filters []*Filter
	scores  []Score
	sealed  bool
}

// NewTally returns an empty tally with the given id.
func NewTally(id int) *Tally {
	return &Tally{id: id}
}

// ID returns the tally id.
func (t *Tally) ID() int { return t.id }

// Name returns the display name, empty when unset.
func (t *Tally) Name() string { return t.name }

// Estimator returns the requested estimator, empty when unset.
func (t *Tally) Estimator() Estimator { return t.estimator }

// Nuclides returns a copy of the nuclide list.
func (t *Tally) Nuclides() []string { return slices.Clone(t.nuclides) }

// SetName sets the display name.
func (t *Tally) SetName(name string) error {
	if t.sealed {
		return ErrSealed
	}
	t.name = name
	return nil
}

// SetEstimator sets the estimator. The zero Estimator leaves the choice to
// the engine.
func (t *Tally) SetEstimator(e Estimator) error {
	if t.sealed {
		return ErrSealed
	}
	if _, err := ParseEstimator(string(e)); err != nil {
		return err
	}
	t.estimator = e
	return nil
}

// SetNuclides replaces the nuclide list with a copy of nuclides.
func (t *Tally) SetNuclides(nuclides ...string) error {
	if t.sealed {
		return ErrSealed
	}
	t.nuclides = slices.Clone(nuclides)
	return nil
}

// AddFilter appends f to the tally's filters. The filter is shared, not
// copied.
func (t *Tally) AddFilter(f *Filter) error {
	if t.sealed {
		return ErrSealed
	}
	if f == nil {
		return &ValidationError{Field: "filter", Message: fmt.Sprintf("tally %d: nil filter", t.id)}
	}
	if !f.kind.Valid() {
		return &ValidationError{Field: "filter.type", Message: fmt.Sprintf("tally %d: unknown filter type %q", t.id, f.kind)}
	}
	t.filters = append(t.filters, f)
	return nil
}

// AddScore appends s to the tally's scores. Adding a score that is already
// present is allowed and recorded again; the engine tolerates redundant
// scores.
func (t *Tally) AddScore(s Score) error {
	if t.sealed {
		return ErrSealed
	}
	if !s.Valid() {
		return &ValidationError{Field: "score", Message: fmt.Sprintf("tally %d: unknown score %q", t.id, s)}
	}
	t.scores = append(t.scores, s)
	return nil
}

// Filters returns the attached filters in attachment order.
func (t *Tally) Filters() []*Filter {
	return append([]*Filter(nil), t.filters...)
}

// Scores returns the scores in addition order.
func (t *Tally) Scores() []Score {
	return append([]Score(nil), t.scores...)
}

// Sealed reports whether the tally has been serialized.
func (t *Tally) Sealed() bool { return t.sealed }
