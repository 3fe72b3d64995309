package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/etamimi93/openmc/internal/config"
	"github.com/etamimi93/openmc/internal/engine"
	"github.com/etamimi93/openmc/internal/harness"
	"github.com/etamimi93/openmc/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Update   bool
	Parallel int
	Database string
	Engine   string
	Timeout  time.Duration
	Filter   string

	// Runner overrides the engine runner (for testing).
	// If nil, the engine is started as a child process.
	Runner engine.Runner

	// IDs overrides the run id generator (for testing).
	IDs harness.IDGenerator
}

// ScenarioSummary is the reported outcome of one scenario.
type ScenarioSummary struct {
	Name     string   `json:"name"`
	RunID    string   `json:"run_id,omitempty"`
	Verdict  string   `json:"verdict"`
	Pass     bool     `json:"pass"`
	Updated  bool     `json:"updated,omitempty"`
	Artifact string   `json:"artifact,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Errors   []string `json:"errors"`
}

// RunSummary is the output of the run command.
type RunSummary struct {
	Scenarios []ScenarioSummary `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml|dir>...",
		Short: "Run regression scenarios",
		Long: `Run one or more regression scenarios.

Each scenario builds its tally specification, writes the engine
configuration into its working directory, runs the engine, and compares the
result artifact against the stored reference. Directories are searched for
scenario files.

Settings may also come from the environment: TALLYREG_ENGINE,
TALLYREG_ENGINE_ARGS, TALLYREG_DB, TALLYREG_PARALLEL and TALLYREG_TIMEOUT.
Flags take precedence.

Example:
  tallyreg run ./scenarios
  tallyreg run --parallel 4 --db ./history.db ./scenarios
  tallyreg run --update ./scenarios/mg_tallies.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate references instead of comparing")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 1, "number of scenarios to run at once")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history database")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "engine executable (default openmc)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "timeout per engine run (0 disables)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")

	return cmd
}

// applyConfig fills options not set on the command line from cfg.
func (opts *RunOptions) applyConfig(cmd *cobra.Command, cfg config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("engine") {
		opts.Engine = cfg.Engine
	}
	if !flags.Changed("db") {
		opts.Database = cfg.Database
	}
	if !flags.Changed("parallel") {
		opts.Parallel = cfg.Parallel
	}
	if !flags.Changed("timeout") {
		opts.Timeout = cfg.Timeout
	}
}

func runScenarios(opts *RunOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load()
	if err != nil {
		_ = formatter.Error(CodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	opts.applyConfig(cmd, cfg)
	if opts.Parallel < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--parallel must be at least 1, got %d", opts.Parallel))
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	jobs, loadErrs := loadJobs(args, opts.Filter)
	if len(loadErrs) > 0 {
		messages := make([]string, len(loadErrs))
		for i, e := range loadErrs {
			messages[i] = e.Error()
		}
		_ = formatter.Error(CodeLoadFailed, "failed to load scenarios", messages)
		return WrapExitError(ExitCommandError, "failed to load scenarios", errors.Join(loadErrs...))
	}
	if len(jobs) == 0 {
		_ = formatter.Error(CodeLoadFailed, "no scenarios found", nil)
		return NewExitError(ExitCommandError, "no scenarios found")
	}
	formatter.VerboseLog("loaded %d scenario(s)", len(jobs))

	hopts := harness.Options{
		Runner:        opts.Runner,
		Logger:        logger,
		IDs:           opts.IDs,
		Update:        opts.Update,
		EngineCommand: opts.Engine,
		EngineArgs:    cfg.EngineArgs,
		Timeout:       opts.Timeout,
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Database != "" {
		logger.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(CodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		if err := st.Ping(ctx); err != nil {
			_ = formatter.Error(CodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "database unreachable", err)
		}
		hopts.Recorder = st
	}

	h := harness.New(hopts)
	outcomes, err := h.RunAll(ctx, jobs, opts.Parallel)
	if err != nil {
		_ = formatter.Error(CodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot run scenarios", err)
	}

	summary := summarize(jobs, outcomes)
	var failure *CLIError
	if summary.Failed > 0 {
		failure = &CLIError{
			Code:    CodeScenarioFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", summary.Failed),
		}
	}
	if formatter.JSON() {
		if err := formatter.Respond(summary, failure); err != nil {
			return err
		}
	} else {
		printSummary(cmd, summary)
	}

	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

func summarize(jobs []harness.Job, outcomes []harness.Outcome) RunSummary {
	summary := RunSummary{
		Scenarios: make([]ScenarioSummary, 0, len(outcomes)),
		Total:     len(outcomes),
	}
	for i, o := range outcomes {
		s := ScenarioSummary{
			Name:    jobs[i].Scenario.Name,
			Verdict: string(harness.StateFailed),
			Errors:  []string{},
		}
		if res := o.Result; res != nil {
			s.RunID = res.RunID
			s.Verdict = string(res.Verdict)
			s.Pass = res.Pass
			s.Updated = res.Updated
			s.Artifact = res.Artifact
			s.Duration = res.Duration.Round(time.Millisecond).String()
			s.Errors = append(s.Errors, res.Errors...)
		}
		if o.Err != nil && (o.Result == nil || len(o.Result.Errors) == 0) {
			s.Errors = append(s.Errors, o.Err.Error())
		}
		if s.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.Scenarios = append(summary.Scenarios, s)
	}
	return summary
}

func printSummary(cmd *cobra.Command, summary RunSummary) {
	out := cmd.OutOrStdout()
	for _, s := range summary.Scenarios {
		if s.Pass {
			note := ""
			if s.Updated {
				note = " (reference updated)"
			}
			fmt.Fprintf(out, "✓ %s%s\n", s.Name, note)
			continue
		}
		fmt.Fprintf(out, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
}
