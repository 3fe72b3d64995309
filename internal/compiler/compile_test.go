package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etamimi93/openmc/internal/tally"
)

func compile(t *testing.T, src string) (*Definition, error) {
	t.Helper()
	return CompileBytes("test.cue", []byte(src))
}

func TestCompileFile_MGTallies(t *testing.T) {
	def, err := CompileFile(filepath.Join("testdata", "mg_tallies.cue"))
	require.NoError(t, err)

	require.Len(t, def.Meshes, 1)
	assert.Equal(t, [3]int{17, 17, 1}, def.Meshes[0].Dimension)
	assert.Equal(t, [3]float64{21.42, 21.42, 100}, def.Meshes[0].UpperRight)
	assert.Equal(t, tally.MeshRegular, def.Meshes[0].Type)

	names := make([]string, len(def.Filters))
	for i, f := range def.Filters {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"mesh", "material", "energy", "energyout"}, names)

	require.Len(t, def.Tallies, 2)
	assert.Equal(t, []string{"material", "energy", "energyout"}, def.Tallies[1].Filters)
	assert.Equal(t, []tally.Score{tally.ScoreScatter, tally.ScoreNuScatter}, def.Tallies[1].Scores)
}

func TestDefinition_BuildMatchesGoBuilder(t *testing.T) {
	def, err := CompileFile(filepath.Join("testdata", "mg_tallies.cue"))
	require.NoError(t, err)

	spec := tally.NewSpecification()
	require.NoError(t, def.Build(spec))
	got, err := spec.Serialize()
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("..", "scenarios", "testdata", "golden", "mg_tallies.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestDefinition_BuildIsRepeatable(t *testing.T) {
	def, err := CompileFile(filepath.Join("testdata", "mg_tallies.cue"))
	require.NoError(t, err)

	a, b := tally.NewSpecification(), tally.NewSpecification()
	require.NoError(t, def.Build(a))
	require.NoError(t, def.Build(b))

	ta, _ := a.Tally(1)
	tb, _ := b.Tally(1)
	assert.NotSame(t, ta, tb)
}

func TestDefinition_SharedFilters(t *testing.T) {
	def, err := compile(t, `
		filters: e: {type: "energy", bins: [0.0, 0.625, 20.0]}
		tallies: [
			{id: 1, filters: ["e"], scores: ["flux"]},
			{id: 2, filters: ["e"], scores: ["total"], estimator: "tracklength", nuclides: ["U235"], name: "fuel"},
		]
	`)
	require.NoError(t, err)

	spec := tally.NewSpecification()
	require.NoError(t, def.Build(spec))
	t1, _ := spec.Tally(1)
	t2, _ := spec.Tally(2)
	assert.Same(t, t1.Filters()[0], t2.Filters()[0])
	assert.Equal(t, tally.EstimatorTracklength, t2.Estimator())
	assert.Equal(t, []string{"U235"}, t2.Nuclides())
	assert.Equal(t, "fuel", t2.Name())

	n, err := spec.NumBins(t1.Filters()[0])
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCompile_UnresolvedFilterName(t *testing.T) {
	_, err := compile(t, `
		filters: e: {type: "energy", bins: [0.0, 20.0]}
		tallies: [{id: 4, filters: ["e", "energy"], scores: ["flux"]}]
	`)
	require.Error(t, err)
	assert.True(t, tally.IsUnresolvedReference(err))
	assert.EqualError(t, err, `tally 4: unresolved reference to filter "energy"`)
}

func TestDefinition_DanglingMeshFailsOnBuild(t *testing.T) {
	def, err := compile(t, `
		filters: m: {type: "mesh", mesh: 9}
		tallies: [{id: 1, filters: ["m"], scores: ["flux"]}]
	`)
	require.NoError(t, err)

	err = def.Build(tally.NewSpecification())
	assert.True(t, tally.IsDanglingMeshReference(err))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		field   string
		message string
	}{
		{
			name:    "unknown filter type",
			src:     `filters: x: {type: "energyin", bins: [0.0, 1.0]}` + "\ntallies: []",
			field:   "filter.type",
			message: `unknown filter type "energyin"`,
		},
		{
			name:    "unknown score",
			src:     `tallies: [{id: 1, scores: ["fluxx"]}]`,
			field:   "score",
			message: "fluxx",
		},
		{
			name:    "boundaries not increasing",
			src:     `filters: e: {type: "energy", bins: [20.0, 0.0]}` + "\ntallies: []",
			field:   "filter.bins",
			message: "strictly increasing",
		},
		{
			name:    "mesh filter without mesh",
			src:     `filters: m: {type: "mesh"}` + "\ntallies: []",
			field:   "filters.m",
			message: "requires a mesh id",
		},
		{
			name:    "mesh on energy filter",
			src:     `filters: e: {type: "energy", bins: [0.0, 1.0], mesh: 1}` + "\ntallies: []",
			field:   "filters.e",
			message: "does not take a mesh",
		},
		{
			name:    "unsupported mesh type",
			src:     `meshes: [{id: 1, type: "cylindrical", dimension: [1, 1, 1], lower_left: [0, 0, 0], upper_right: [1, 1, 1]}]` + "\ntallies: []",
			field:   "mesh.type",
			message: "cylindrical",
		},
		{
			name:    "inverted mesh bounds",
			src:     `meshes: [{id: 1, dimension: [1, 1, 1], lower_left: [0, 0, 0], upper_right: [1, -1, 1]}]` + "\ntallies: []",
			field:   "mesh.bounds",
			message: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.src)
			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.message)
			assert.True(t, ce.Pos.IsValid())
			assert.Equal(t, "test.cue", ce.Pos.Filename())
		})
	}
}

func TestCompile_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", `tallies: [`},
		{"unknown top-level field", "meshs: []\ntallies: []"},
		{"unknown mesh field", `meshes: [{id: 1, dims: [1, 1, 1], dimension: [1, 1, 1], lower_left: [0, 0, 0], upper_right: [1, 1, 1]}]` + "\ntallies: []"},
		{"non-positive tally id", `tallies: [{id: 0, scores: ["flux"]}]`},
		{"two-dimensional mesh", `meshes: [{id: 1, dimension: [1, 1], lower_left: [0, 0, 0], upper_right: [1, 1, 1]}]` + "\ntallies: []"},
		{"missing scores", `tallies: [{id: 1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.src)
			assert.Error(t, err)
		})
	}
}

func TestCompileFile_Missing(t *testing.T) {
	_, err := CompileFile(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read spec file")
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "tally.scores", Message: "unknown score"}
	assert.EqualError(t, err, "tally.scores: unknown score")
}
