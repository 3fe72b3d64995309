package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/etamimi93/openmc/internal/engine"
	"github.com/etamimi93/openmc/internal/statepoint"
)

// DefaultArtifact is the file name FakeEngine writes results to.
const DefaultArtifact = "statepoint.10.mgsp"

// FakeEngine is an engine.Runner that writes a statepoint instead of
// running a transport calculation.
//
// Thread-safety: safe for concurrent use; each call writes only into its own
// Invocation.Dir.
type FakeEngine struct {
	// Results are written to Artifact in the working directory. Nil writes
	// nothing, which simulates an engine that exits cleanly without output.
	Results *statepoint.Results

	// Artifact overrides DefaultArtifact.
	Artifact string

	// Extra lists additional by-product files to create.
	Extra []string

	// RequireConfig makes the engine fail with exit code 2 when this file is
	// absent from the working directory.
	RequireConfig string

	// ExitCode and Stderr simulate a failing engine. A non-zero ExitCode
	// writes no results.
	ExitCode int
	Stderr   string

	// Err is returned as a start failure.
	Err error

	// Block waits for context cancellation before returning.
	Block bool

	mu    sync.Mutex
	calls []engine.Invocation
}

// Run implements engine.Runner.
func (f *FakeEngine) Run(ctx context.Context, inv engine.Invocation) (*engine.Execution, error) {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()

	start := time.Now()
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.RequireConfig != "" {
		if _, err := os.Stat(filepath.Join(inv.Dir, f.RequireConfig)); err != nil {
			return &engine.Execution{
				ExitCode: 2,
				Stderr:   []byte(fmt.Sprintf("ERROR: %s not found\n", f.RequireConfig)),
				Duration: time.Since(start),
			}, nil
		}
	}
	if f.ExitCode != 0 {
		return &engine.Execution{
			ExitCode: f.ExitCode,
			Stderr:   []byte(f.Stderr),
			Duration: time.Since(start),
		}, nil
	}

	if f.Results != nil {
		name := f.Artifact
		if name == "" {
			name = DefaultArtifact
		}
		if err := statepoint.WriteFile(filepath.Join(inv.Dir, name), f.Results); err != nil {
			return nil, err
		}
	}
	for _, name := range f.Extra {
		if err := os.WriteFile(filepath.Join(inv.Dir, name), []byte("by-product\n"), 0o644); err != nil {
			return nil, err
		}
	}
	return &engine.Execution{Stdout: []byte("fake engine done\n"), Duration: time.Since(start)}, nil
}

// Calls returns the invocations received so far.
func (f *FakeEngine) Calls() []engine.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}
