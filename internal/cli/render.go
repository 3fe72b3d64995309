package cli

import (
	"github.com/spf13/cobra"

	"github.com/etamimi93/openmc/internal/harness"
)

// RenderOutput is the JSON output of the render command.
type RenderOutput struct {
	Scenario   string `json:"scenario"`
	ConfigHash string `json:"config_hash"`
	Config     string `json:"config"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <scenario.yaml>",
		Short: "Print the engine configuration a scenario would write",
		Long: `Build a scenario's tally specification and print the serialized
configuration without running the engine.

Example:
  tallyreg render ./scenarios/mg_tallies.yaml
  tallyreg render --format json ./scenarios/mg_tallies.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderScenario(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func renderScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	job, err := loadJob(path)
	if err != nil {
		_ = formatter.Error(CodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	data, err := harness.RenderConfig(job.Builder)
	if err != nil {
		_ = formatter.Error(CodeBuildFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build specification", err)
	}

	if formatter.JSON() {
		return formatter.Success(RenderOutput{
			Scenario:   job.Scenario.Name,
			ConfigHash: harness.ConfigHash(data),
			Config:     string(data),
		})
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
