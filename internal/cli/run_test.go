package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etamimi93/openmc/internal/harness"
	"github.com/etamimi93/openmc/internal/statepoint"
	"github.com/etamimi93/openmc/internal/store"
	"github.com/etamimi93/openmc/internal/testutil"
)

func newTestRunOptions(format string, fe *testutil.FakeEngine) *RunOptions {
	return &RunOptions{
		RootOptions: &RootOptions{Format: format},
		Runner:      fe,
		IDs:         harness.NewSequenceGenerator("run"),
	}
}

func TestRun_Pass(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScenario(t, dir, "mg_tallies", "builder: mg_tallies")
	writeReference(t, dir, "mg_tallies", testutil.MGResults())

	fe := &testutil.FakeEngine{Results: testutil.MGResults(), RequireConfig: "tallies.xml"}
	stdout, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), path)

	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ mg_tallies")
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")

	calls := fe.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "openmc", calls[0].Command)
	assert.Equal(t, filepath.Join(dir, "work-mg_tallies"), calls[0].Dir)

	// Generated artifacts are gone after the run.
	entries, err := os.ReadDir(filepath.Join(dir, "work-mg_tallies"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_Mismatch(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScenario(t, dir, "mg_tallies", "builder: mg_tallies")
	writeReference(t, dir, "mg_tallies", testutil.MGResults())

	fe := &testutil.FakeEngine{Results: testutil.Perturb(testutil.MGResults(), 2, 0, 0, 1.01)}
	stdout, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), path)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 scenario(s) failed")
	assert.Contains(t, stdout, "✗ mg_tallies")
	assert.Contains(t, stdout, "result mismatch")
	assert.Contains(t, stdout, "0 passed, 1 failed, 1 total")
}

func TestRun_JSONOutput(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScenario(t, dir, "mg_tallies", "builder: mg_tallies")
	writeReference(t, dir, "mg_tallies", testutil.MGResults())

	fe := &testutil.FakeEngine{ExitCode: 139, Stderr: "segmentation fault"}
	stdout, _, err := execute(newRunCommand(newTestRunOptions("json", fe)), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeScenarioFailed, resp.Error.Code)

	require.Len(t, resp.Data.Scenarios, 1)
	s := resp.Data.Scenarios[0]
	assert.Equal(t, "mg_tallies", s.Name)
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, "FAILED", s.Verdict)
	assert.False(t, s.Pass)
	require.Len(t, s.Errors, 1)
	assert.Contains(t, s.Errors[0], "139")
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, 1, resp.Data.Total)
}

func TestRun_DirectoryWithBothSources(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	copyFile(t, filepath.Join("..", "compiler", "testdata", "mg_tallies.cue"), filepath.Join(dir, "mg_tallies.cue"))
	writeScenario(t, dir, "mg_builder", "builder: mg_tallies")
	writeScenario(t, dir, "mg_cue", "spec: mg_tallies.cue")
	writeReference(t, dir, "mg_builder", testutil.MGResults())
	writeReference(t, dir, "mg_cue", testutil.MGResults())

	fe := &testutil.FakeEngine{Results: testutil.MGResults(), RequireConfig: "tallies.xml"}
	stdout, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), "--parallel", "2", dir)

	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ mg_builder")
	assert.Contains(t, stdout, "✓ mg_cue")
	assert.Contains(t, stdout, "2 passed, 0 failed, 2 total")
	assert.Len(t, fe.Calls(), 2)
}

func TestRun_Filter(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeScenario(t, dir, "mg_one", "builder: mg_tallies")
	writeScenario(t, dir, "other", "builder: mg_tallies")
	writeReference(t, dir, "mg_one", testutil.MGResults())

	fe := &testutil.FakeEngine{Results: testutil.MGResults()}
	stdout, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), "--filter", "mg_*", dir)

	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ mg_one")
	assert.NotContains(t, stdout, "other")
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

func TestRun_UnknownBuilder(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScenario(t, dir, "broken", "builder: no_such_builder")

	fe := &testutil.FakeEngine{Results: testutil.MGResults()}
	stdout, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), path)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "E_LOAD")
	assert.Contains(t, err.Error(), `unknown builder "no_such_builder"`)
	assert.Empty(t, fe.Calls())
}

func TestRun_MissingScenarioFile(t *testing.T) {
	clearEnv(t)
	fe := &testutil.FakeEngine{}
	_, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_EmptyDirectory(t *testing.T) {
	clearEnv(t)
	fe := &testutil.FakeEngine{}
	_, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), t.TempDir())

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no scenarios found")
}

func TestRun_Update(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeScenario(t, dir, "mg_tallies", "builder: mg_tallies")

	fe := &testutil.FakeEngine{Results: testutil.MGResults()}
	stdout, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), "--update", path)

	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ mg_tallies (reference updated)")

	ref, err := statepoint.Open(filepath.Join(dir, "refs", "mg_tallies.yaml"))
	require.NoError(t, err)
	assert.Equal(t, testutil.MGResults(), ref)
}

func TestRun_EngineFlagOverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLYREG_ENGINE", "env-engine")
	t.Setenv("TALLYREG_ENGINE_ARGS", "-s 4")
	dir := t.TempDir()
	path := writeScenario(t, dir, "mg_tallies", "builder: mg_tallies")
	writeReference(t, dir, "mg_tallies", testutil.MGResults())

	fe := &testutil.FakeEngine{Results: testutil.MGResults()}
	_, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), "--engine", "flag-engine", path)
	require.NoError(t, err)

	calls := fe.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "flag-engine", calls[0].Command)
	assert.Equal(t, []string{"-s", "4"}, calls[0].Args)
}

func TestRun_EngineFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLYREG_ENGINE", "env-engine")
	dir := t.TempDir()
	path := writeScenario(t, dir, "mg_tallies", "builder: mg_tallies")
	writeReference(t, dir, "mg_tallies", testutil.MGResults())

	fe := &testutil.FakeEngine{Results: testutil.MGResults()}
	_, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), path)
	require.NoError(t, err)

	calls := fe.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "env-engine", calls[0].Command)
}

func TestRun_InvalidEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TALLYREG_PARALLEL", "0")
	dir := t.TempDir()
	path := writeScenario(t, dir, "mg_tallies", "builder: mg_tallies")

	_, _, err := execute(newRunCommand(newTestRunOptions("text", &testutil.FakeEngine{})), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_RecordsHistory(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	path := writeScenario(t, dir, "mg_tallies", "builder: mg_tallies")
	writeReference(t, dir, "mg_tallies", testutil.MGResults())

	fe := &testutil.FakeEngine{Results: testutil.MGResults()}
	_, _, err := execute(newRunCommand(newTestRunOptions("text", fe)), "--db", dbPath, path)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(t.Context(), "mg_tallies", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "PASSED", runs[0].Verdict)
	assert.Equal(t, testutil.DefaultArtifact, runs[0].Artifact)
	assert.NotEmpty(t, runs[0].ConfigHash)
}
