package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/etamimi93/openmc/internal/config"
	"github.com/etamimi93/openmc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [scenario]",
		Short: "List recorded scenario runs",
		Long: `List runs recorded by "tallyreg run --db", newest first.

Example:
  tallyreg history --db ./history.db
  tallyreg history --db ./history.db --limit 5 mg_tallies`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := ""
			if len(args) == 1 {
				scenario = args[0]
			}
			return showHistory(opts, scenario, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run history database")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs to list (0 lists all)")

	return cmd
}

func showHistory(opts *HistoryOptions, scenario string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if !cmd.Flags().Changed("db") {
		cfg, err := config.Load()
		if err != nil {
			_ = formatter.Error(CodeLoadFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
		opts.Database = cfg.Database
	}
	if opts.Database == "" {
		_ = formatter.Error(CodeStore, "no database: set --db or TALLYREG_DB", nil)
		return NewExitError(ExitCommandError, "no database: set --db or TALLYREG_DB")
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--limit must not be negative, got %d", opts.Limit))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := st.Ping(ctx); err != nil {
		_ = formatter.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "database unreachable", err)
	}
	runs, err := st.ListRuns(ctx, scenario, opts.Limit)
	if err != nil {
		_ = formatter.Error(CodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-20s  %-7s  %-20s  %s\n", "RUN ID", "SCENARIO", "VERDICT", "STARTED", "DURATION")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-20s  %-7s  %-20s  %s\n",
			r.ID, r.Scenario, r.Verdict,
			r.StartedAt.Format(time.DateTime),
			r.Duration.Round(time.Millisecond))
		if r.Error != "" && opts.Verbose {
			fmt.Fprintf(out, "  %s\n", r.Error)
		}
	}
	return nil
}
