package harness

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/etamimi93/openmc/internal/statepoint"
	"github.com/etamimi93/openmc/internal/store"
	"github.com/etamimi93/openmc/internal/tally"
	"github.com/etamimi93/openmc/internal/testutil"
)

// mgBuild builds the multi-group tallies specification: one 17x17x1 mesh
// tally with five scores and one material/energy/energyout tally with two.
func mgBuild(spec *tally.Specification) error {
	mesh, err := tally.NewRegularMesh(1, [3]int{17, 17, 1},
		[3]float64{0, 0, 0}, [3]float64{21.42, 21.42, 100})
	if err != nil {
		return err
	}
	if err := spec.AddMesh(mesh); err != nil {
		return err
	}

	meshFilter, err := tally.NewMeshFilter(1)
	if err != nil {
		return err
	}
	t1 := tally.NewTally(1)
	if err := t1.AddFilter(meshFilter); err != nil {
		return err
	}
	for _, s := range []tally.Score{tally.ScoreTotal, tally.ScoreAbsorption, tally.ScoreFlux, tally.ScoreFission, tally.ScoreNuFission} {
		if err := t1.AddScore(s); err != nil {
			return err
		}
	}
	if err := spec.AddTally(t1); err != nil {
		return err
	}

	material, err := tally.NewMaterialFilter(1, 2, 3)
	if err != nil {
		return err
	}
	energy, err := tally.NewEnergyFilter(0, 20)
	if err != nil {
		return err
	}
	energyOut, err := tally.NewEnergyOutFilter(0, 20)
	if err != nil {
		return err
	}
	t2 := tally.NewTally(2)
	for _, f := range []*tally.Filter{material, energy, energyOut} {
		if err := t2.AddFilter(f); err != nil {
			return err
		}
	}
	for _, s := range []tally.Score{tally.ScoreScatter, tally.ScoreNuScatter} {
		if err := t2.AddScore(s); err != nil {
			return err
		}
	}
	return spec.AddTally(t2)
}

var mgBuilder = BuilderFunc(mgBuild)

// newTestScenario creates a scenario working in its own temp directory with
// a reference path in a separate directory.
func newTestScenario(t *testing.T) *Scenario {
	t.Helper()
	return &Scenario{
		Name:          "mg_tallies",
		WorkDir:       t.TempDir(),
		ResultPattern: "statepoint.10.*",
		Reference:     filepath.Join(t.TempDir(), "results_true.yaml"),
		Tolerance:     Tolerance{Abs: 1e-12, Rel: 1e-6},
	}
}

func writeReference(t *testing.T, path string, res *statepoint.Results) {
	t.Helper()
	data, err := statepoint.WriteSummary(res)
	require.NoError(t, err)
	require.NoError(t, writeFile(path, data))
}

func newTestHarness(runner *testutil.FakeEngine) *Harness {
	return New(Options{
		Runner: runner,
		IDs:    NewSequenceGenerator("run"),
	})
}

func states(res *Result) []State {
	out := make([]State, len(res.Transitions))
	for i, tr := range res.Transitions {
		out[i] = tr.To
	}
	return out
}

// memoryRecorder collects recorded runs.
type memoryRecorder struct {
	mu   sync.Mutex
	runs []store.Run
}

func (m *memoryRecorder) RecordRun(_ context.Context, run store.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}
