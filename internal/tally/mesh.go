package tally

import "fmt"

// MeshType tags the geometry of a mesh. Only regular rectilinear meshes are
// supported.
type MeshType string

const MeshRegular MeshType = "regular"

// Mesh is a rectilinear grid usable as the domain of a mesh filter.
// Meshes are values; a Specification keeps its own copy on registration.
type Mesh struct {
	ID         int
	Type       MeshType
	Dimension  [3]int
	LowerLeft  [3]float64
	UpperRight [3]float64
}

// NewRegularMesh returns a validated regular mesh.
func NewRegularMesh(id int, dim [3]int, lowerLeft, upperRight [3]float64) (Mesh, error) {
	m := Mesh{
		ID:         id,
		Type:       MeshRegular,
		Dimension:  dim,
		LowerLeft:  lowerLeft,
		UpperRight: upperRight,
	}
	if err := m.Validate(); err != nil {
		return Mesh{}, err
	}
	return m, nil
}

// Validate checks the mesh invariants.
func (m Mesh) Validate() error {
	if m.ID < 1 {
		return &ValidationError{Field: "mesh.id", Message: fmt.Sprintf("must be positive, got %d", m.ID)}
	}
	if m.Type != MeshRegular {
		return &ValidationError{Field: "mesh.type", Message: fmt.Sprintf("unsupported mesh type %q", m.Type)}
	}
	for i := 0; i < 3; i++ {
		if m.Dimension[i] < 1 {
			return &ValidationError{
				Field:   "mesh.dimension",
				Message: fmt.Sprintf("mesh %d: component %d must be >= 1, got %d", m.ID, i, m.Dimension[i]),
			}
		}
		if !(m.LowerLeft[i] < m.UpperRight[i]) {
			return &ValidationError{
				Field: "mesh.bounds",
				Message: fmt.Sprintf("mesh %d: lower_left[%d]=%g must be less than upper_right[%d]=%g",
					m.ID, i, m.LowerLeft[i], i, m.UpperRight[i]),
			}
		}
	}
	return nil
}

// NumCells returns the number of cells in the mesh.
func (m Mesh) NumCells() int {
	return m.Dimension[0] * m.Dimension[1] * m.Dimension[2]
}
