package tally

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type xmlTallies struct {
	XMLName xml.Name   `xml:"tallies"`
	Meshes  []xmlMesh  `xml:"mesh"`
	Tallies []xmlTally `xml:"tally"`
}

type xmlMesh struct {
	ID         int    `xml:"id,attr"`
	Type       string `xml:"type,attr"`
	Dimension  string `xml:"dimension"`
	LowerLeft  string `xml:"lower_left"`
	UpperRight string `xml:"upper_right"`
}

type xmlTally struct {
	ID        int         `xml:"id,attr"`
	Name      string      `xml:"name,attr,omitempty"`
	Filters   []xmlFilter `xml:"filter"`
	Nuclides  string      `xml:"nuclides,omitempty"`
	Scores    string      `xml:"scores"`
	Estimator string      `xml:"estimator,omitempty"`
}

type xmlFilter struct {
	Type string `xml:"type,attr"`
	Bins string `xml:"bins,attr"`
}

// Serialize renders the specification in the engine's tallies XML format.
// Meshes come first in registration order, then tallies in registration
// order; filters and scores keep their attachment order.
//
// Serializing seals every tally against further modification.
func (s *Specification) Serialize() ([]byte, error) {
	doc := xmlTallies{
		Meshes:  make([]xmlMesh, 0, len(s.meshes)),
		Tallies: make([]xmlTally, 0, len(s.tallies)),
	}

	for _, m := range s.meshes {
		doc.Meshes = append(doc.Meshes, xmlMesh{
			ID:         m.ID,
			Type:       string(m.Type),
			Dimension:  formatInts(m.Dimension[:]),
			LowerLeft:  formatFloats(m.LowerLeft[:]),
			UpperRight: formatFloats(m.UpperRight[:]),
		})
	}

	seen := make(map[int]struct{}, len(s.tallies))
	for _, t := range s.tallies {
		if _, dup := seen[t.id]; dup {
			return nil, &DuplicateIDError{Kind: "tally", ID: t.id}
		}
		seen[t.id] = struct{}{}
		xt, err := s.renderTally(t)
		if err != nil {
			return nil, err
		}
		doc.Tallies = append(doc.Tallies, xt)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode tallies: %w", err)
	}
	buf.WriteByte('\n')

	for _, t := range s.tallies {
		t.sealed = true
	}
	return buf.Bytes(), nil
}

func (s *Specification) renderTally(t *Tally) (xmlTally, error) {
	if len(t.scores) == 0 {
		return xmlTally{}, &ValidationError{Field: "tally.scores", Message: fmt.Sprintf("tally %d has no scores", t.id)}
	}

	xt := xmlTally{
		ID:        t.id,
		Name:      norm.NFC.String(t.name),
		Estimator: string(t.estimator),
	}
	if len(t.nuclides) > 0 {
		nuclides := make([]string, len(t.nuclides))
		for i, n := range t.nuclides {
			nuclides[i] = norm.NFC.String(n)
		}
		xt.Nuclides = strings.Join(nuclides, " ")
	}

	for i, f := range t.filters {
		if f == nil {
			return xmlTally{}, &UnresolvedReferenceError{TallyID: t.id, Ref: "filter[" + strconv.Itoa(i) + "]"}
		}
		if !f.kind.Valid() {
			return xmlTally{}, &ValidationError{Field: "filter.type", Message: fmt.Sprintf("tally %d: unknown filter type %q", t.id, f.kind)}
		}
		if meshID, ok := f.MeshID(); ok {
			if _, found := s.meshIndex[meshID]; !found {
				return xmlTally{}, &UnresolvedReferenceError{TallyID: t.id, Ref: fmt.Sprintf("mesh %d", meshID)}
			}
		}
		xt.Filters = append(xt.Filters, xmlFilter{Type: string(f.kind), Bins: f.binsText()})
	}

	scores := make([]string, len(t.scores))
	for i, sc := range t.scores {
		scores[i] = string(sc)
	}
	xt.Scores = strings.Join(scores, " ")
	return xt, nil
}

// WriteFile serializes the specification to path and returns the bytes
// written.
func (s *Specification) WriteFile(path string) ([]byte, error) {
	data, err := s.Serialize()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return data, nil
}
