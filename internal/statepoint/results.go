package statepoint

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is one tallied estimate.
type Value struct {
	Mean   float64
	StdDev float64
}

// TallyResult holds the accumulated values of a single tally.
type TallyResult struct {
	ID     int
	Bins   []int    // bin count per filter, in filter order
	Scores []string // score names, in score order
	Values []Value  // len == NumBins()*len(Scores)
}

// Results is the content of one result artifact.
type Results struct {
	Batches int
	Tallies []TallyResult
}

// Tally returns the result for the tally with the given id.
func (r *Results) Tally(id int) (*TallyResult, bool) {
	for i := range r.Tallies {
		if r.Tallies[i].ID == id {
			return &r.Tallies[i], true
		}
	}
	return nil, false
}

// NumBins returns the size of the filter cross product. A tally without
// filters has a single bin.
func (t *TallyResult) NumBins() int {
	n := 1
	for _, b := range t.Bins {
		n *= b
	}
	return n
}

// At returns the value for a flat bin index and score index.
func (t *TallyResult) At(bin, score int) Value {
	return t.Values[bin*len(t.Scores)+score]
}

// BinTuple expands a flat bin index into one index per filter.
func (t *TallyResult) BinTuple(bin int) []int {
	tuple := make([]int, len(t.Bins))
	for i := len(t.Bins) - 1; i >= 0; i-- {
		tuple[i] = bin % t.Bins[i]
		bin /= t.Bins[i]
	}
	return tuple
}

// Validate checks that the value slice matches the declared shape.
func (t *TallyResult) Validate() error {
	for i, b := range t.Bins {
		if b < 1 {
			return fmt.Errorf("tally %d: filter %d has %d bins", t.ID, i, b)
		}
	}
	if len(t.Scores) == 0 {
		return fmt.Errorf("tally %d: no scores", t.ID)
	}
	if want := t.NumBins() * len(t.Scores); len(t.Values) != want {
		return fmt.Errorf("tally %d: %d values, want %d", t.ID, len(t.Values), want)
	}
	return nil
}

// FormatBin renders a bin tuple for diagnostics, e.g. "(0,2,1)".
func FormatBin(tuple []int) string {
	parts := make([]string, len(tuple))
	for i, v := range tuple {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
