package statepoint

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// summaryFile is the YAML form of Results.
type summaryFile struct {
	Batches int            `yaml:"batches"`
	Tallies []summaryTally `yaml:"tallies"`
}

type summaryTally struct {
	ID     int         `yaml:"id"`
	Bins   []int       `yaml:"bins,flow"`
	Scores []string    `yaml:"scores,flow"`
	Values []valuePair `yaml:"values"`
}

// valuePair renders as a flow sequence "[mean, std_dev]".
type valuePair [2]float64

func (p valuePair) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(p[0], 'g', -1, 64)},
			{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(p[1], 'g', -1, 64)},
		},
	}, nil
}

func (p *valuePair) UnmarshalYAML(node *yaml.Node) error {
	var vs []float64
	if err := node.Decode(&vs); err != nil {
		return err
	}
	if len(vs) != 2 {
		return fmt.Errorf("line %d: value must be [mean, std_dev], got %d numbers", node.Line, len(vs))
	}
	p[0], p[1] = vs[0], vs[1]
	return nil
}

// WriteSummary encodes res as a YAML summary.
func WriteSummary(res *Results) ([]byte, error) {
	doc := summaryFile{Batches: res.Batches, Tallies: make([]summaryTally, 0, len(res.Tallies))}
	for i := range res.Tallies {
		t := &res.Tallies[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		st := summaryTally{ID: t.ID, Bins: t.Bins, Scores: t.Scores, Values: make([]valuePair, len(t.Values))}
		if st.Bins == nil {
			st.Bins = []int{}
		}
		for k, v := range t.Values {
			st.Values[k] = valuePair{v.Mean, v.StdDev}
		}
		doc.Tallies = append(doc.Tallies, st)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadSummary decodes a YAML summary. Unknown fields are rejected.
func ReadSummary(data []byte) (*Results, error) {
	var doc summaryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}

	res := &Results{Batches: doc.Batches, Tallies: make([]TallyResult, 0, len(doc.Tallies))}
	for _, st := range doc.Tallies {
		t := TallyResult{ID: st.ID, Bins: st.Bins, Scores: st.Scores, Values: make([]Value, len(st.Values))}
		for k, p := range st.Values {
			t.Values[k] = Value{Mean: p[0], StdDev: p[1]}
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		res.Tallies = append(res.Tallies, t)
	}
	return res, nil
}

// Open reads a result artifact or reference from path, accepting either the
// binary layout or a YAML summary.
func Open(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, Magic[:]) {
		return Read(bytes.NewReader(data))
	}
	return ReadSummary(data)
}

// Reader loads a result artifact. The harness depends on this interface so
// that engines with other output layouts can plug in their own reader.
type Reader interface {
	ReadResults(path string) (*Results, error)
}

// FileReader is the default Reader backed by Open.
type FileReader struct{}

// ReadResults implements Reader.
func (FileReader) ReadResults(path string) (*Results, error) {
	return Open(path)
}
