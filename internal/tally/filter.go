package tally

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter partitions scored events into bins along one axis.
//
// A Filter is immutable once constructed and may be attached to any number
// of tallies. Mesh filters hold the id of a mesh owned by the Specification,
// never the mesh itself.
type Filter struct {
	kind   FilterKind
	bounds []float64
	ids    []int
	meshID int
}

// NewBoundaryFilter returns a filter whose bins lie between consecutive,
// strictly increasing boundary values.
func NewBoundaryFilter(kind FilterKind, bounds ...float64) (*Filter, error) {
	if kind.family() != familyBoundary {
		return nil, &ValidationError{Field: "filter.type", Message: fmt.Sprintf("%q is not a boundary filter", kind)}
	}
	if len(bounds) < 2 {
		return nil, &ValidationError{
			Field:   "filter.bins",
			Message: fmt.Sprintf("%s filter needs at least 2 boundaries, got %d", kind, len(bounds)),
		}
	}
	for i := 1; i < len(bounds); i++ {
		if !(bounds[i] > bounds[i-1]) {
			return nil, &ValidationError{
				Field:   "filter.bins",
				Message: fmt.Sprintf("%s filter boundaries must be strictly increasing: %g follows %g", kind, bounds[i], bounds[i-1]),
			}
		}
	}
	return &Filter{kind: kind, bounds: append([]float64(nil), bounds...)}, nil
}

// NewDiscreteFilter returns a filter with one bin per listed id.
func NewDiscreteFilter(kind FilterKind, ids ...int) (*Filter, error) {
	if kind.family() != familyDiscrete {
		return nil, &ValidationError{Field: "filter.type", Message: fmt.Sprintf("%q is not a discrete filter", kind)}
	}
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "filter.bins", Message: fmt.Sprintf("%s filter needs at least one id", kind)}
	}
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if id < 1 {
			return nil, &ValidationError{Field: "filter.bins", Message: fmt.Sprintf("%s filter id must be positive, got %d", kind, id)}
		}
		if _, dup := seen[id]; dup {
			return nil, &ValidationError{Field: "filter.bins", Message: fmt.Sprintf("%s filter lists id %d twice", kind, id)}
		}
		seen[id] = struct{}{}
	}
	return &Filter{kind: kind, ids: append([]int(nil), ids...)}, nil
}

// NewMeshFilter returns a filter binning events by the cells of the mesh
// with the given id. The mesh is resolved when the owning tally is
// registered.
func NewMeshFilter(meshID int) (*Filter, error) {
	if meshID < 1 {
		return nil, &ValidationError{Field: "filter.mesh", Message: fmt.Sprintf("mesh id must be positive, got %d", meshID)}
	}
	return &Filter{kind: FilterMesh, meshID: meshID}, nil
}

// NewEnergyFilter is shorthand for an incoming-energy boundary filter.
func NewEnergyFilter(bounds ...float64) (*Filter, error) {
	return NewBoundaryFilter(FilterEnergy, bounds...)
}

// NewEnergyOutFilter is shorthand for an outgoing-energy boundary filter.
func NewEnergyOutFilter(bounds ...float64) (*Filter, error) {
	return NewBoundaryFilter(FilterEnergyOut, bounds...)
}

// NewMaterialFilter is shorthand for a material id filter.
func NewMaterialFilter(ids ...int) (*Filter, error) {
	return NewDiscreteFilter(FilterMaterial, ids...)
}

// Kind returns the filter's binning axis.
func (f *Filter) Kind() FilterKind { return f.kind }

// Bounds returns a copy of the boundary values of a boundary filter.
func (f *Filter) Bounds() []float64 { return append([]float64(nil), f.bounds...) }

// IDs returns a copy of the ids of a discrete filter.
func (f *Filter) IDs() []int { return append([]int(nil), f.ids...) }

// MeshID returns the referenced mesh id. ok is false for non-mesh filters.
func (f *Filter) MeshID() (id int, ok bool) {
	if f.kind != FilterMesh {
		return 0, false
	}
	return f.meshID, true
}

// binsText renders the filter's bins attribute.
func (f *Filter) binsText() string {
	switch f.kind.family() {
	case familyBoundary:
		return formatFloats(f.bounds)
	case familyDiscrete:
		return formatInts(f.ids)
	default:
		return strconv.Itoa(f.meshID)
	}
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func formatInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
