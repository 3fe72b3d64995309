package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Invocation describes one engine run.
type Invocation struct {
	// Dir is the working directory holding the configuration artifacts.
	Dir string

	// Command is the engine executable, resolved through PATH if relative.
	Command string

	// Args are passed to the engine verbatim.
	Args []string

	// Env overrides or extends the inherited environment.
	Env map[string]string

	// Isolated starts the engine with only Env instead of the inherited
	// environment.
	Isolated bool
}

// Execution is the outcome of a finished engine process.
type Execution struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Succeeded reports whether the engine exited with status zero.
func (e *Execution) Succeeded() bool {
	return e.ExitCode == 0
}

// Runner starts the engine and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Execution, error)
}

// ProcessRunner runs the engine as a child process.
type ProcessRunner struct{}

// NewProcessRunner returns a runner that inherits the host environment.
func NewProcessRunner() *ProcessRunner {
	return &ProcessRunner{}
}

// Run implements Runner.
//
// The engine is started in its own process group. If ctx ends before the
// engine exits, the whole group is killed and Run returns an error wrapping
// ctx.Err().
func (r *ProcessRunner) Run(ctx context.Context, inv Invocation) (*Execution, error) {
	if inv.Command == "" {
		return nil, fmt.Errorf("engine command is empty")
	}

	cmd := exec.Command(inv.Command, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = buildEnv(inv.Env, inv.Isolated)
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return nil, fmt.Errorf("engine cancelled: %w", ctx.Err())
	case err = <-done:
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to wait for engine: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Execution{
		ExitCode: exitCode,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}, nil
}

// buildEnv merges overrides into the host environment. The result is sorted
// so that identical invocations see identical environments.
func buildEnv(overrides map[string]string, isolated bool) []string {
	merged := make(map[string]string)
	if !isolated {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				merged[k] = v
			}
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
