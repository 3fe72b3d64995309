package tally

import "fmt"

// Specification owns the meshes and tallies of one scenario. Both
// collections keep registration order.
type Specification struct {
	meshes     []Mesh
	meshIndex  map[int]int
	tallies    []*Tally
	tallyIndex map[int]int
}

// NewSpecification returns an empty specification.
func NewSpecification() *Specification {
	return &Specification{
		meshIndex:  make(map[int]int),
		tallyIndex: make(map[int]int),
	}
}

// AddMesh registers a copy of m. It fails with DuplicateIDError if the id is
// already registered; the specification is unchanged on failure.
func (s *Specification) AddMesh(m Mesh) error {
	if _, exists := s.meshIndex[m.ID]; exists {
		return &DuplicateIDError{Kind: "mesh", ID: m.ID}
	}
	if err := m.Validate(); err != nil {
		return err
	}
	s.meshIndex[m.ID] = len(s.meshes)
	s.meshes = append(s.meshes, m)
	return nil
}

// AddTally registers t. It fails with DuplicateIDError on an id collision
// and with DanglingMeshReferenceError if a mesh filter attached to t names a
// mesh that is not registered. The specification is unchanged on failure.
func (s *Specification) AddTally(t *Tally) error {
	if t == nil {
		return &ValidationError{Field: "tally", Message: "nil tally"}
	}
	if t.id < 1 {
		return &ValidationError{Field: "tally.id", Message: fmt.Sprintf("must be positive, got %d", t.id)}
	}
	if _, exists := s.tallyIndex[t.id]; exists {
		return &DuplicateIDError{Kind: "tally", ID: t.id}
	}
	for _, f := range t.filters {
		if meshID, ok := f.MeshID(); ok {
			if _, found := s.meshIndex[meshID]; !found {
				return &DanglingMeshReferenceError{TallyID: t.id, MeshID: meshID}
			}
		}
	}
	s.tallyIndex[t.id] = len(s.tallies)
	s.tallies = append(s.tallies, t)
	return nil
}

// Mesh returns the registered mesh with the given id.
func (s *Specification) Mesh(id int) (Mesh, bool) {
	i, ok := s.meshIndex[id]
	if !ok {
		return Mesh{}, false
	}
	return s.meshes[i], true
}

// Tally returns the registered tally with the given id.
func (s *Specification) Tally(id int) (*Tally, bool) {
	i, ok := s.tallyIndex[id]
	if !ok {
		return nil, false
	}
	return s.tallies[i], true
}

// Meshes returns the registered meshes in registration order.
func (s *Specification) Meshes() []Mesh {
	return append([]Mesh(nil), s.meshes...)
}

// Tallies returns the registered tallies in registration order.
func (s *Specification) Tallies() []*Tally {
	return append([]*Tally(nil), s.tallies...)
}

// NumBins returns the number of bins f contributes to a tally of this
// specification. Mesh filters resolve their mesh through the specification.
func (s *Specification) NumBins(f *Filter) (int, error) {
	switch f.kind.family() {
	case familyBoundary:
		return len(f.bounds) - 1, nil
	case familyDiscrete:
		return len(f.ids), nil
	case familyMesh:
		m, ok := s.Mesh(f.meshID)
		if !ok {
			return 0, &UnresolvedReferenceError{Ref: fmt.Sprintf("mesh %d", f.meshID)}
		}
		return m.NumCells(), nil
	default:
		return 0, &ValidationError{Field: "filter.type", Message: fmt.Sprintf("unknown filter type %q", f.kind)}
	}
}
