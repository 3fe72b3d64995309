package testutil

import (
	"github.com/etamimi93/openmc/internal/statepoint"
)

// MGBatches is the batch count of the multi-group fixture.
const MGBatches = 10

// MGResults returns results shaped like the multi-group tallies scenario:
// tally 1 over a 17x17x1 mesh with five scores, and tally 2 over three
// materials, one incoming and one outgoing energy group with two scores.
//
// Values are a deterministic function of tally, bin and score.
func MGResults() *statepoint.Results {
	return &statepoint.Results{
		Batches: MGBatches,
		Tallies: []statepoint.TallyResult{
			fill(1, []int{289}, []string{"total", "absorption", "flux", "fission", "nu-fission"}),
			fill(2, []int{3, 1, 1}, []string{"scatter", "nu-scatter"}),
		},
	}
}

func fill(id int, bins []int, scores []string) statepoint.TallyResult {
	t := statepoint.TallyResult{ID: id, Bins: bins, Scores: scores}
	n := t.NumBins() * len(scores)
	t.Values = make([]statepoint.Value, n)
	for i := range t.Values {
		mean := float64(id*1000+i) + 0.5
		t.Values[i] = statepoint.Value{Mean: mean, StdDev: mean * 0.01}
	}
	return t
}

// Perturb returns a copy of res with one value's mean multiplied by factor.
func Perturb(res *statepoint.Results, tallyID, bin, score int, factor float64) *statepoint.Results {
	out := &statepoint.Results{Batches: res.Batches}
	for _, t := range res.Tallies {
		c := statepoint.TallyResult{
			ID:     t.ID,
			Bins:   append([]int(nil), t.Bins...),
			Scores: append([]string(nil), t.Scores...),
			Values: append([]statepoint.Value(nil), t.Values...),
		}
		if t.ID == tallyID {
			c.Values[bin*len(c.Scores)+score].Mean *= factor
		}
		out.Tallies = append(out.Tallies, c)
	}
	return out
}
