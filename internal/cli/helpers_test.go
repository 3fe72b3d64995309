package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/etamimi93/openmc/internal/statepoint"
)

// writeScenario writes a scenario file named name.yaml into dir. source is
// either "builder: <name>" or "spec: <path>".
func writeScenario(t *testing.T, dir, name, source string) string {
	t.Helper()
	content := "name: " + name + "\n" +
		source + "\n" +
		"work_dir: work-" + name + "\n" +
		"result_pattern: \"statepoint.*.mgsp\"\n" +
		"reference: refs/" + name + ".yaml\n" +
		"tolerance:\n" +
		"  abs: 1.0e-12\n" +
		"  rel: 1.0e-9\n"
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeReference stores res as the reference of scenario name in dir.
func writeReference(t *testing.T, dir, name string, res *statepoint.Results) string {
	t.Helper()
	data, err := statepoint.WriteSummary(res)
	require.NoError(t, err)
	path := filepath.Join(dir, "refs", name+".yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// copyFile copies src to dst.
func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

// execute runs cmd with args and returns its stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// clearEnv removes every TALLYREG_ setting for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TALLYREG_ENGINE", "TALLYREG_ENGINE_ARGS", "TALLYREG_DB", "TALLYREG_PARALLEL", "TALLYREG_TIMEOUT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
