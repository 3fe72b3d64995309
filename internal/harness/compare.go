package harness

import (
	"fmt"
	"math"
	"slices"

	"github.com/etamimi93/openmc/internal/statepoint"
	"github.com/etamimi93/openmc/internal/tally"
)

// Within reports whether actual is within t of expected.
func (t Tolerance) Within(expected, actual float64) bool {
	if math.IsNaN(expected) || math.IsNaN(actual) {
		return math.IsNaN(expected) && math.IsNaN(actual)
	}
	if expected == actual {
		return true
	}
	return math.Abs(actual-expected) <= t.Abs+t.Rel*math.Abs(expected)
}

// Compare checks every reference value against the actual results and
// returns a ResultMismatchError for the first one outside tolerance.
// Tallies are visited in reference order, bins in flat order, and within a
// bin each score's mean before its standard deviation.
func Compare(expected, actual *statepoint.Results, tol Tolerance) error {
	if expected.Batches != 0 && actual.Batches != expected.Batches {
		return &ResultMismatchError{
			Field:  "batches",
			Detail: fmt.Sprintf("batches expected %d, actual %d", expected.Batches, actual.Batches),
		}
	}

	for i := range expected.Tallies {
		want := &expected.Tallies[i]
		got, ok := actual.Tally(want.ID)
		if !ok {
			return &ResultMismatchError{TallyID: want.ID, Field: "tally", Detail: "missing from result artifact"}
		}
		if err := compareShape(want, got); err != nil {
			return err
		}
		for bin := 0; bin < want.NumBins(); bin++ {
			for s, score := range want.Scores {
				w, g := want.At(bin, s), got.At(bin, s)
				if !tol.Within(w.Mean, g.Mean) {
					return &ResultMismatchError{
						TallyID: want.ID, Bin: want.BinTuple(bin), Score: score,
						Field: "mean", Expected: w.Mean, Actual: g.Mean,
					}
				}
				if !tol.Within(w.StdDev, g.StdDev) {
					return &ResultMismatchError{
						TallyID: want.ID, Bin: want.BinTuple(bin), Score: score,
						Field: "std_dev", Expected: w.StdDev, Actual: g.StdDev,
					}
				}
			}
		}
	}

	for _, got := range actual.Tallies {
		if _, ok := expected.Tally(got.ID); !ok {
			return &ResultMismatchError{TallyID: got.ID, Field: "tally", Detail: "not present in reference"}
		}
	}
	return nil
}

func compareShape(want, got *statepoint.TallyResult) error {
	if !slices.Equal(want.Bins, got.Bins) {
		return &ResultMismatchError{
			TallyID: want.ID, Field: "bins",
			Detail: fmt.Sprintf("filter bins expected %v, actual %v", want.Bins, got.Bins),
		}
	}
	if !slices.Equal(want.Scores, got.Scores) {
		return &ResultMismatchError{
			TallyID: want.ID, Field: "scores",
			Detail: fmt.Sprintf("scores expected %v, actual %v", want.Scores, got.Scores),
		}
	}
	return nil
}

// CheckShape verifies that the artifact holds every tally of spec with the
// bin counts and scores the specification implies.
func CheckShape(spec *tally.Specification, actual *statepoint.Results) error {
	for _, t := range spec.Tallies() {
		want := statepoint.TallyResult{ID: t.ID()}
		for _, f := range t.Filters() {
			n, err := spec.NumBins(f)
			if err != nil {
				return fmt.Errorf("tally %d: %w", t.ID(), err)
			}
			want.Bins = append(want.Bins, n)
		}
		for _, s := range t.Scores() {
			want.Scores = append(want.Scores, string(s))
		}

		got, ok := actual.Tally(t.ID())
		if !ok {
			return &ResultMismatchError{TallyID: t.ID(), Field: "tally", Detail: "missing from result artifact"}
		}
		if err := compareShape(&want, got); err != nil {
			return err
		}
	}
	return nil
}
