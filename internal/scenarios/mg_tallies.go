package scenarios

import (
	"github.com/etamimi93/openmc/internal/tally"
)

// Multi-group tallies scenario geometry: a 17x17 lattice of 1.26 cm pins,
// one axial cell 100 cm tall.
var (
	mgMeshDimension  = [3]int{17, 17, 1}
	mgMeshLowerLeft  = [3]float64{0, 0, 0}
	mgMeshUpperRight = [3]float64{21.42, 21.42, 100}
	mgMaterials      = []int{1, 2, 3}
	mgEnergyBounds   = []float64{0.0, 20.0}
)

// MGTallies builds the multi-group tallies specification: a reaction-rate
// tally over the pin mesh and a scattering tally per material with one
// incoming and one outgoing energy group.
func MGTallies(spec *tally.Specification) error {
	mesh, err := tally.NewRegularMesh(1, mgMeshDimension, mgMeshLowerLeft, mgMeshUpperRight)
	if err != nil {
		return err
	}
	if err := spec.AddMesh(mesh); err != nil {
		return err
	}

	meshFilter, err := tally.NewMeshFilter(mesh.ID)
	if err != nil {
		return err
	}
	energy, err := tally.NewEnergyFilter(mgEnergyBounds...)
	if err != nil {
		return err
	}
	energyOut, err := tally.NewEnergyOutFilter(mgEnergyBounds...)
	if err != nil {
		return err
	}
	material, err := tally.NewMaterialFilter(mgMaterials...)
	if err != nil {
		return err
	}

	reactions, err := newTally(1, []*tally.Filter{meshFilter},
		tally.ScoreTotal, tally.ScoreAbsorption, tally.ScoreFlux, tally.ScoreFission, tally.ScoreNuFission)
	if err != nil {
		return err
	}
	if err := spec.AddTally(reactions); err != nil {
		return err
	}

	scattering, err := newTally(2, []*tally.Filter{material, energy, energyOut},
		tally.ScoreScatter, tally.ScoreNuScatter)
	if err != nil {
		return err
	}
	return spec.AddTally(scattering)
}

func newTally(id int, filters []*tally.Filter, scores ...tally.Score) (*tally.Tally, error) {
	t := tally.NewTally(id)
	for _, f := range filters {
		if err := t.AddFilter(f); err != nil {
			return nil, err
		}
	}
	for _, s := range scores {
		if err := t.AddScore(s); err != nil {
			return nil, err
		}
	}
	return t, nil
}
