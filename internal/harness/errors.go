package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etamimi93/openmc/internal/engine"
	"github.com/etamimi93/openmc/internal/statepoint"
)

// EngineExecutionError reports an engine that failed, crashed, or was
// cancelled. No comparison is attempted after it.
type EngineExecutionError = engine.ExecutionError

// ResultMismatchError reports the first result value (or structural
// difference) that is outside tolerance.
type ResultMismatchError struct {
	TallyID int
	Bin     []int  // nil for structural mismatches
	Score   string // empty for structural mismatches
	Field   string // "mean", "std_dev", or a structural field name

	Expected float64
	Actual   float64

	// Detail replaces the expected/actual pair for structural mismatches.
	Detail string

	// Err is set when the artifact could not be decoded.
	Err error
}

func (e *ResultMismatchError) Error() string {
	var loc []string
	if e.TallyID != 0 {
		loc = append(loc, fmt.Sprintf("tally %d", e.TallyID))
	}
	if e.Bin != nil {
		loc = append(loc, "bin "+statepoint.FormatBin(e.Bin))
	}
	if e.Score != "" {
		loc = append(loc, "score "+e.Score)
	}
	where := strings.Join(loc, " ")
	if where != "" {
		where += ": "
	}

	switch {
	case e.Err != nil:
		return fmt.Sprintf("result mismatch: %sunreadable artifact: %v", where, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("result mismatch: %s%s", where, e.Detail)
	default:
		return fmt.Sprintf("result mismatch: %s%s expected %g, actual %g", where, e.Field, e.Expected, e.Actual)
	}
}

func (e *ResultMismatchError) Unwrap() error {
	return e.Err
}

// ArtifactMissingError reports a result artifact or reference that does not
// exist after a successful engine run.
type ArtifactMissingError struct {
	Dir     string
	Pattern string // set for result artifacts
	Path    string // set for references
}

func (e *ArtifactMissingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("reference %s not found", e.Path)
	}
	return fmt.Sprintf("no result artifact matching %q in %s", e.Pattern, e.Dir)
}

// AmbiguousArtifactError reports a result pattern that matched more than one
// file.
type AmbiguousArtifactError struct {
	Pattern string
	Matches []string
}

func (e *AmbiguousArtifactError) Error() string {
	return fmt.Sprintf("result pattern %q matched %d files: %s", e.Pattern, len(e.Matches), strings.Join(e.Matches, ", "))
}

// ConfigMismatchError reports a serialized configuration that differs from
// the scenario's inputs reference.
type ConfigMismatchError struct {
	Path     string
	Line     int
	Expected string
	Actual   string
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("configuration differs from %s at line %d:\n  expected: %s\n  actual:   %s",
		e.Path, e.Line, e.Expected, e.Actual)
}

// IsEngineExecution reports whether err is an EngineExecutionError.
func IsEngineExecution(err error) bool {
	var ee *EngineExecutionError
	return errors.As(err, &ee)
}

// IsResultMismatch reports whether err is a ResultMismatchError.
func IsResultMismatch(err error) bool {
	var me *ResultMismatchError
	return errors.As(err, &me)
}

// IsArtifactMissing reports whether err is an ArtifactMissingError.
func IsArtifactMissing(err error) bool {
	var ae *ArtifactMissingError
	return errors.As(err, &ae)
}

// diffLines locates the first differing line, 1-indexed.
func diffLines(expected, actual []byte) *ConfigMismatchError {
	el := strings.Split(string(expected), "\n")
	al := strings.Split(string(actual), "\n")
	for i := 0; i < len(el) || i < len(al); i++ {
		var e, a string
		if i < len(el) {
			e = el[i]
		}
		if i < len(al) {
			a = al[i]
		}
		if e != a || i >= len(el) || i >= len(al) {
			return &ConfigMismatchError{Line: i + 1, Expected: e, Actual: a}
		}
	}
	return nil
}
