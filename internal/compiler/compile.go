// Package compiler turns declarative CUE tally specifications into
// builders.
//
// A specification file declares meshes, named filters, and tallies that
// refer to filters by name:
//
//	meshes: [{id: 1, dimension: [17, 17, 1],
//	          lower_left: [0, 0, 0], upper_right: [21.42, 21.42, 100]}]
//	filters: {
//	    mesh:   {type: "mesh", mesh: 1}
//	    energy: {type: "energy", bins: [0.0, 20.0]}
//	}
//	tallies: [{id: 1, filters: ["mesh"], scores: ["total", "flux"]}]
//
// A named filter is created once and shared by every tally that lists it.
package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/etamimi93/openmc/internal/tally"
)

//go:embed schema.cue
var schemaCUE string

// CompileFile reads and compiles a CUE specification file.
func CompileFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return CompileBytes(path, data)
}

// CompileBytes compiles CUE source. filename is used in error positions.
func CompileBytes(filename string, src []byte) (*Definition, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(schema.LookupPath(cue.ParsePath("#Spec")).Unify(v))
}

// Compile parses a CUE value that already satisfies the schema (or is
// unified with it) into a Definition.
func Compile(v cue.Value) (*Definition, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	def := &Definition{filterIndex: make(map[string]int)}

	if err := forEach(v.LookupPath(cue.ParsePath("meshes")), func(mv cue.Value) error {
		m, err := compileMesh(mv)
		if err != nil {
			return err
		}
		def.Meshes = append(def.Meshes, m)
		return nil
	}); err != nil {
		return nil, err
	}

	filtersVal := v.LookupPath(cue.ParsePath("filters"))
	if filtersVal.Exists() {
		iter, err := filtersVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name := iter.Label()
			f, err := compileFilter(name, iter.Value())
			if err != nil {
				return nil, err
			}
			def.filterIndex[name] = len(def.Filters)
			def.Filters = append(def.Filters, NamedFilter{Name: name, Filter: f})
		}
	}

	if err := forEach(v.LookupPath(cue.ParsePath("tallies")), func(tv cue.Value) error {
		td, err := def.compileTally(tv)
		if err != nil {
			return err
		}
		def.Tallies = append(def.Tallies, td)
		return nil
	}); err != nil {
		return nil, err
	}

	return def, nil
}

func forEach(list cue.Value, fn func(cue.Value) error) error {
	if !list.Exists() {
		return nil
	}
	iter, err := list.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func compileMesh(v cue.Value) (tally.Mesh, error) {
	var raw struct {
		ID         int       `json:"id"`
		Type       string    `json:"type"`
		Dimension  []int     `json:"dimension"`
		LowerLeft  []float64 `json:"lower_left"`
		UpperRight []float64 `json:"upper_right"`
	}
	if err := v.Decode(&raw); err != nil {
		return tally.Mesh{}, formatCUEError(err)
	}
	if raw.Type != string(tally.MeshRegular) {
		return tally.Mesh{}, &CompileError{
			Field:   "mesh.type",
			Message: fmt.Sprintf("unsupported mesh type %q", raw.Type),
			Pos:     v.Pos(),
		}
	}

	var dim [3]int
	var ll, ur [3]float64
	copy(dim[:], raw.Dimension)
	copy(ll[:], raw.LowerLeft)
	copy(ur[:], raw.UpperRight)

	m, err := tally.NewRegularMesh(raw.ID, dim, ll, ur)
	if err != nil {
		return tally.Mesh{}, positioned(err, v)
	}
	return m, nil
}

func compileFilter(name string, v cue.Value) (*tally.Filter, error) {
	typeName, err := v.LookupPath(cue.ParsePath("type")).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	kind, err := tally.ParseFilterKind(typeName)
	if err != nil {
		return nil, positioned(err, v)
	}

	bins := v.LookupPath(cue.ParsePath("bins"))
	meshVal := v.LookupPath(cue.ParsePath("mesh"))

	var f *tally.Filter
	switch {
	case kind == tally.FilterMesh:
		if !meshVal.Exists() {
			return nil, &CompileError{Field: "filters." + name, Message: "mesh filter requires a mesh id", Pos: v.Pos()}
		}
		id, err := meshVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		f, err = tally.NewMeshFilter(int(id))
		if err != nil {
			return nil, positioned(err, v)
		}
	case kind.UsesBoundaries():
		var bounds []float64
		if bins.Exists() {
			if err := bins.Decode(&bounds); err != nil {
				return nil, formatCUEError(err)
			}
		}
		f, err = tally.NewBoundaryFilter(kind, bounds...)
		if err != nil {
			return nil, positioned(err, v)
		}
	default:
		var ids []int
		if bins.Exists() {
			if err := bins.Decode(&ids); err != nil {
				return nil, formatCUEError(err)
			}
		}
		f, err = tally.NewDiscreteFilter(kind, ids...)
		if err != nil {
			return nil, positioned(err, v)
		}
	}

	if kind != tally.FilterMesh && meshVal.Exists() {
		return nil, &CompileError{Field: "filters." + name, Message: fmt.Sprintf("%s filter does not take a mesh", kind), Pos: v.Pos()}
	}
	return f, nil
}

func (d *Definition) compileTally(v cue.Value) (TallyDef, error) {
	var raw struct {
		ID        int      `json:"id"`
		Name      string   `json:"name"`
		Filters   []string `json:"filters"`
		Scores    []string `json:"scores"`
		Nuclides  []string `json:"nuclides"`
		Estimator string   `json:"estimator"`
	}
	if err := v.Decode(&raw); err != nil {
		return TallyDef{}, formatCUEError(err)
	}

	td := TallyDef{ID: raw.ID, Name: raw.Name, Nuclides: raw.Nuclides, Filters: raw.Filters}

	est, err := tally.ParseEstimator(raw.Estimator)
	if err != nil {
		return TallyDef{}, positioned(err, v)
	}
	td.Estimator = est

	for _, name := range raw.Filters {
		if _, ok := d.filterIndex[name]; !ok {
			return TallyDef{}, &tally.UnresolvedReferenceError{TallyID: raw.ID, Ref: fmt.Sprintf("filter %q", name)}
		}
	}
	for _, s := range raw.Scores {
		score, err := tally.ParseScore(s)
		if err != nil {
			return TallyDef{}, positioned(err, v)
		}
		td.Scores = append(td.Scores, score)
	}
	return td, nil
}

// positioned attaches v's source position to a validation error.
func positioned(err error, v cue.Value) error {
	if ve, ok := err.(*tally.ValidationError); ok {
		return &CompileError{Field: ve.Field, Message: ve.Message, Pos: v.Pos()}
	}
	return err
}
