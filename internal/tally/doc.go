// Package tally models what a transport run should measure.
//
// A Specification owns an ordered collection of meshes and tallies. Tallies
// hold an ordered list of filters (the cross product of their bins) and an
// ordered list of scores. Filters are shared by pointer between tallies and
// refer to meshes by id only; the mesh itself always lives in the owning
// Specification's arena and is resolved through it.
//
// # Building
//
//	spec := tally.NewSpecification()
//	mesh, _ := tally.NewRegularMesh(1, [3]int{17, 17, 1},
//	    [3]float64{0, 0, 0}, [3]float64{21.42, 21.42, 100})
//	_ = spec.AddMesh(mesh)
//
//	t := tally.NewTally(1)
//	mf, _ := tally.NewMeshFilter(1)
//	_ = t.AddFilter(mf)
//	_ = t.AddScore(tally.ScoreFlux)
//	_ = spec.AddTally(t)
//
//	data, err := spec.Serialize()
//
// Serialize is a pure function of the specification's content: two calls on
// an unchanged specification return identical bytes.
package tally
