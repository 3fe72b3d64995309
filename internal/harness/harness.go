package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/etamimi93/openmc/internal/engine"
	"github.com/etamimi93/openmc/internal/statepoint"
	"github.com/etamimi93/openmc/internal/store"
	"github.com/etamimi93/openmc/internal/tally"
)

// DefaultEngineCommand is the engine executable used when neither the
// harness nor the scenario names one.
const DefaultEngineCommand = "openmc"

// Recorder persists finished runs. *store.Store implements it.
type Recorder interface {
	RecordRun(ctx context.Context, run store.Run) error
}

// Options configure a Harness. Zero values select the defaults.
type Options struct {
	// Runner starts the engine. Defaults to engine.NewProcessRunner().
	Runner engine.Runner

	// Reader decodes result artifacts. Defaults to statepoint.FileReader.
	Reader statepoint.Reader

	// Logger receives progress logs. Defaults to a discard logger.
	Logger *slog.Logger

	// Recorder, if set, receives every finished run.
	Recorder Recorder

	// IDs generates run ids. Defaults to UUIDv7Generator.
	IDs IDGenerator

	// Update regenerates references from the current run instead of
	// comparing against them.
	Update bool

	// EngineCommand is the default engine executable.
	EngineCommand string

	// EngineArgs are prepended to every scenario's engine arguments.
	EngineArgs []string

	// Timeout bounds a single engine run. Zero means no limit.
	Timeout time.Duration
}

// Harness runs scenarios. A Harness holds no per-run state and is safe for
// concurrent use by scenarios with distinct working directories.
type Harness struct {
	runner   engine.Runner
	reader   statepoint.Reader
	logger   *slog.Logger
	recorder Recorder
	ids      IDGenerator
	update   bool
	command  string
	args     []string
	timeout  time.Duration
}

// New creates a Harness.
func New(opts Options) *Harness {
	h := &Harness{
		runner:   opts.Runner,
		reader:   opts.Reader,
		logger:   opts.Logger,
		recorder: opts.Recorder,
		ids:      opts.IDs,
		update:   opts.Update,
		command:  opts.EngineCommand,
		args:     slices.Clone(opts.EngineArgs),
		timeout:  opts.Timeout,
	}
	if h.runner == nil {
		h.runner = engine.NewProcessRunner()
	}
	if h.reader == nil {
		h.reader = statepoint.FileReader{}
	}
	if h.logger == nil {
		// Discard logs by default (tests).
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if h.ids == nil {
		h.ids = UUIDv7Generator{}
	}
	if h.command == "" {
		h.command = DefaultEngineCommand
	}
	return h
}

// run carries the state of one scenario execution.
type run struct {
	h      *Harness
	sc     *Scenario
	res    *Result
	log    *slog.Logger
	dir    string
	temp   bool
	spec   *tally.Specification
	config []byte
}

// Run executes one scenario with the given builder.
//
// The returned Result always ends in CLEANED. A non-nil error means the
// specification could not be constructed or serialized; all other failures
// are reported through a FAILED Result and a nil error.
func (h *Harness) Run(ctx context.Context, sc *Scenario, b Builder) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("scenario %s: nil builder", sc.Name)
	}

	r := &run{
		h:   h,
		sc:  sc,
		res: newResult(sc.Name, h.ids.Generate()),
	}
	r.log = h.logger.With("scenario", sc.Name, "run_id", r.res.RunID)

	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer func() {
		r.release()
		r.res.Duration = time.Since(r.res.StartedAt)
		r.record(ctx)
	}()

	r.res.enter(StateBuilding)
	r.log.Debug("building specification")
	if err := r.build(b); err != nil {
		r.res.fail(err)
		return r.res, err
	}

	r.res.enter(StateConfigured)
	r.log.Debug("configuration written", "path", filepath.Join(r.dir, sc.configFile()), "hash", r.res.ConfigHash)
	if err := r.checkInputs(); err != nil {
		r.res.fail(err)
		return r.res, nil
	}

	r.res.enter(StateRunning)
	if err := r.execute(ctx); err != nil {
		r.res.fail(err)
		return r.res, nil
	}

	r.res.enter(StateCompleted)
	if err := r.evaluate(); err != nil {
		r.res.fail(err)
		return r.res, nil
	}
	r.res.pass()
	return r.res, nil
}

func (r *run) acquire() error {
	if r.sc.WorkDir == "" {
		dir, err := os.MkdirTemp("", "tallyreg-"+r.sc.Name+"-*")
		if err != nil {
			return fmt.Errorf("failed to create working directory: %w", err)
		}
		r.dir = dir
		r.temp = true
		return nil
	}
	if err := os.MkdirAll(r.sc.WorkDir, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	r.dir = r.sc.WorkDir
	return nil
}

// build runs the builder and writes the configuration artifact. A panicking
// builder is reported as a construction error.
func (r *run) build(b Builder) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scenario %s: builder panicked: %v", r.sc.Name, p)
		}
	}()

	spec := tally.NewSpecification()
	if err := b.Build(spec); err != nil {
		return fmt.Errorf("scenario %s: %w", r.sc.Name, err)
	}
	data, err := spec.WriteFile(filepath.Join(r.dir, r.sc.configFile()))
	if err != nil {
		return fmt.Errorf("scenario %s: %w", r.sc.Name, err)
	}
	r.spec = spec
	r.config = data
	r.res.ConfigHash = ConfigHash(data)
	return nil
}

func (r *run) checkInputs() error {
	path := r.sc.InputsReference
	if path == "" {
		return nil
	}
	if r.h.update {
		if err := writeFile(path, r.config); err != nil {
			return fmt.Errorf("failed to update inputs reference: %w", err)
		}
		r.log.Info("inputs reference updated", "path", path)
		return nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ArtifactMissingError{Path: path}
	}
	if err != nil {
		return fmt.Errorf("failed to read inputs reference: %w", err)
	}
	if bytes.Equal(want, r.config) {
		return nil
	}
	mismatch := diffLines(want, r.config)
	mismatch.Path = path
	return mismatch
}

func (r *run) execute(ctx context.Context) error {
	command := r.sc.Engine.Command
	if command == "" {
		command = r.h.command
	}
	inv := engine.Invocation{
		Dir:      r.dir,
		Command:  command,
		Args:     append(slices.Clone(r.h.args), r.sc.Engine.Args...),
		Env:      r.sc.Engine.Env,
		Isolated: r.sc.Engine.Isolated,
	}

	if r.h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.h.timeout)
		defer cancel()
	}

	r.log.Info("running engine", "command", command, "dir", r.dir)
	exec, err := r.h.runner.Run(ctx, inv)
	if err != nil {
		return engine.NewRunError(command, err)
	}
	r.log.Debug("engine exited", "exit_code", exec.ExitCode, "duration", exec.Duration)
	if !exec.Succeeded() {
		return engine.NewExitStatusError(command, exec)
	}
	return nil
}

func (r *run) evaluate() error {
	artifact, err := r.locate()
	if err != nil {
		return err
	}
	r.res.Artifact = filepath.Base(artifact)

	actual, err := r.h.reader.ReadResults(artifact)
	if err != nil {
		return &ResultMismatchError{Err: err}
	}
	if err := CheckShape(r.spec, actual); err != nil {
		return err
	}

	if r.h.update {
		data, err := statepoint.WriteSummary(actual)
		if err != nil {
			return fmt.Errorf("failed to encode reference: %w", err)
		}
		if err := writeFile(r.sc.Reference, data); err != nil {
			return fmt.Errorf("failed to update reference: %w", err)
		}
		r.res.Updated = true
		r.log.Info("reference updated", "path", r.sc.Reference)
		return nil
	}

	expected, err := statepoint.Open(r.sc.Reference)
	if errors.Is(err, fs.ErrNotExist) {
		return &ArtifactMissingError{Path: r.sc.Reference}
	}
	if err != nil {
		return fmt.Errorf("failed to read reference %s: %w", r.sc.Reference, err)
	}
	return Compare(expected, actual, r.sc.Tolerance)
}

// locate finds the single result artifact matching the scenario pattern.
func (r *run) locate() (string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, r.sc.ResultPattern))
	if err != nil {
		return "", fmt.Errorf("result_pattern %q: %w", r.sc.ResultPattern, err)
	}
	matches = slices.DeleteFunc(matches, r.protected)
	switch len(matches) {
	case 0:
		return "", &ArtifactMissingError{Dir: r.dir, Pattern: r.sc.ResultPattern}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = filepath.Base(m)
		}
		return "", &AmbiguousArtifactError{Pattern: r.sc.ResultPattern, Matches: names}
	}
}

// protected reports whether path is one of the scenario's references, which
// are never treated as run artifacts.
func (r *run) protected(path string) bool {
	target := absPath(path)
	for _, ref := range []string{r.sc.Reference, r.sc.InputsReference, r.sc.Spec} {
		if ref != "" && absPath(ref) == target {
			return true
		}
	}
	return false
}

// absPath returns path made absolute, or cleaned if the working directory is
// unavailable.
func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// release removes the generated artifacts and enters CLEANED. Failures are
// logged only.
func (r *run) release() {
	patterns := append([]string{r.sc.configFile(), r.sc.ResultPattern}, r.sc.Cleanup...)
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(r.dir, p))
		if err != nil {
			r.log.Warn("cleanup pattern failed", "pattern", p, "error", err)
			continue
		}
		for _, m := range matches {
			if seen[m] || r.protected(m) {
				continue
			}
			seen[m] = true
			if err := os.Remove(m); err != nil {
				r.log.Warn("cleanup failed", "path", m, "error", err)
				continue
			}
			r.res.Removed = append(r.res.Removed, filepath.Base(m))
		}
	}
	if r.temp {
		if err := os.RemoveAll(r.dir); err != nil {
			r.log.Warn("cleanup failed", "path", r.dir, "error", err)
		}
	}
	r.res.enter(StateCleaned)
	r.log.Info("scenario finished", "verdict", r.res.Verdict, "duration", time.Since(r.res.StartedAt))
}

func (r *run) record(ctx context.Context) {
	if r.h.recorder == nil {
		return
	}
	rec := store.Run{
		ID:         r.res.RunID,
		Scenario:   r.res.Scenario,
		Verdict:    string(r.res.Verdict),
		ConfigHash: r.res.ConfigHash,
		Artifact:   r.res.Artifact,
		StartedAt:  r.res.StartedAt,
		Duration:   r.res.Duration,
	}
	if r.res.Err != nil {
		rec.Error = r.res.Err.Error()
	}
	// A cancelled run is still recorded.
	if err := r.h.recorder.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		r.log.Warn("failed to record run", "error", err)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
