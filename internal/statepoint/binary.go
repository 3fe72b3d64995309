package statepoint

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Magic opens every binary statepoint.
var Magic = [4]byte{'M', 'G', 'S', 'P'}

// Version is the binary layout version written by Write.
const Version = 1

const (
	maxTallies   = 1 << 16
	maxFilters   = 64
	maxScores    = 256
	maxScoreName = 256
	maxValues    = 1 << 24

	// valueChunk bounds how many (mean, std_dev) pairs are decoded per read.
	valueChunk = 4096
)

// ErrBadMagic is returned by Read when the input is not a binary statepoint.
var ErrBadMagic = errors.New("not a binary statepoint")

var order = binary.LittleEndian

// Write encodes res in the binary statepoint layout.
func Write(w io.Writer, res *Results) error {
	bw := bufio.NewWriter(w)
	put := func(v any) error { return binary.Write(bw, order, v) }

	if _, err := bw.Write(Magic[:]); err != nil {
		return err
	}
	header := []uint32{Version, uint32(res.Batches), uint32(len(res.Tallies))}
	if err := put(header); err != nil {
		return err
	}

	for i := range res.Tallies {
		t := &res.Tallies[i]
		if err := t.Validate(); err != nil {
			return err
		}
		if err := put(int32(t.ID)); err != nil {
			return err
		}
		if err := put(uint32(len(t.Bins))); err != nil {
			return err
		}
		for _, b := range t.Bins {
			if err := put(uint32(b)); err != nil {
				return err
			}
		}
		if err := put(uint32(len(t.Scores))); err != nil {
			return err
		}
		for _, s := range t.Scores {
			if err := put(uint16(len(s))); err != nil {
				return err
			}
			if _, err := bw.WriteString(s); err != nil {
				return err
			}
		}
		for _, v := range t.Values {
			if err := put([2]float64{v.Mean, v.StdDev}); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Read decodes a binary statepoint.
func Read(r io.Reader) (*Results, error) {
	br := bufio.NewReader(r)
	get := func(v any) error { return binary.Read(br, order, v) }

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}

	var header [3]uint32
	if err := get(&header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header[0] != Version {
		return nil, fmt.Errorf("unsupported statepoint version %d", header[0])
	}
	if header[2] > maxTallies {
		return nil, fmt.Errorf("implausible tally count %d", header[2])
	}

	res := &Results{Batches: int(header[1]), Tallies: make([]TallyResult, 0, header[2])}
	for i := uint32(0); i < header[2]; i++ {
		t, err := readTally(get, br)
		if err != nil {
			return nil, fmt.Errorf("tally %d: %w", i, err)
		}
		res.Tallies = append(res.Tallies, *t)
	}
	return res, nil
}

func readTally(get func(any) error, br *bufio.Reader) (*TallyResult, error) {
	var id int32
	if err := get(&id); err != nil {
		return nil, fmt.Errorf("read id: %w", err)
	}
	t := &TallyResult{ID: int(id)}

	var nfilters uint32
	if err := get(&nfilters); err != nil {
		return nil, fmt.Errorf("read filter count: %w", err)
	}
	if nfilters > maxFilters {
		return nil, fmt.Errorf("implausible filter count %d", nfilters)
	}
	bins := make([]uint32, nfilters)
	if err := get(bins); err != nil {
		return nil, fmt.Errorf("read bins: %w", err)
	}
	total := uint64(1)
	for _, b := range bins {
		t.Bins = append(t.Bins, int(b))
		total *= uint64(b)
		if total > maxValues {
			return nil, fmt.Errorf("implausible bin count")
		}
	}

	var nscores uint32
	if err := get(&nscores); err != nil {
		return nil, fmt.Errorf("read score count: %w", err)
	}
	if nscores > maxScores {
		return nil, fmt.Errorf("implausible score count %d", nscores)
	}
	for j := uint32(0); j < nscores; j++ {
		var n uint16
		if err := get(&n); err != nil {
			return nil, fmt.Errorf("read score length: %w", err)
		}
		if n > maxScoreName {
			return nil, fmt.Errorf("implausible score name length %d", n)
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(br, name); err != nil {
			return nil, fmt.Errorf("read score name: %w", err)
		}
		t.Scores = append(t.Scores, string(name))
	}

	nvalues := total * uint64(nscores)
	if nvalues > maxValues {
		return nil, fmt.Errorf("implausible value count %d", nvalues)
	}
	t.Values = make([]Value, 0, min(nvalues, valueChunk))
	raw := make([]float64, 2*min(nvalues, valueChunk))
	for remaining := nvalues; remaining > 0; {
		n := min(remaining, valueChunk)
		chunk := raw[:2*n]
		if err := get(chunk); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read values: %w", err)
		}
		for k := uint64(0); k < n; k++ {
			t.Values = append(t.Values, Value{Mean: chunk[2*k], StdDev: chunk[2*k+1]})
		}
		remaining -= n
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteFile writes res to path in the binary layout.
func WriteFile(path string, res *Results) error {
	var buf bytes.Buffer
	if err := Write(&buf, res); err != nil {
		return fmt.Errorf("encode statepoint: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write statepoint: %w", err)
	}
	return nil
}

// ReadFile reads a binary statepoint from path.
func ReadFile(path string) (*Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
