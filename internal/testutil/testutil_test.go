package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etamimi93/openmc/internal/engine"
	"github.com/etamimi93/openmc/internal/statepoint"
)

func TestMGResults_Shape(t *testing.T) {
	res := MGResults()
	require.Len(t, res.Tallies, 2)
	for _, tl := range res.Tallies {
		require.NoError(t, tl.Validate())
	}
	assert.Equal(t, 289, res.Tallies[0].NumBins())
	assert.Equal(t, 3, res.Tallies[1].NumBins())
}

func TestPerturb_CopiesAndScales(t *testing.T) {
	res := MGResults()
	p := Perturb(res, 2, 1, 0, 2)

	orig := res.Tallies[1].At(1, 0).Mean
	assert.Equal(t, orig*2, p.Tallies[1].At(1, 0).Mean)
	assert.Equal(t, orig, res.Tallies[1].At(1, 0).Mean, "original must not change")
	assert.Equal(t, res.Tallies[0].Values, p.Tallies[0].Values)
}

func TestFakeEngine_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	fe := &FakeEngine{Results: MGResults(), Extra: []string{"summary.h5"}}

	exec, err := fe.Run(context.Background(), engine.Invocation{Dir: dir, Command: "openmc"})
	require.NoError(t, err)
	assert.True(t, exec.Succeeded())

	got, err := statepoint.ReadFile(filepath.Join(dir, DefaultArtifact))
	require.NoError(t, err)
	assert.Equal(t, MGResults(), got)
	assert.FileExists(t, filepath.Join(dir, "summary.h5"))
	assert.Len(t, fe.Calls(), 1)
}

func TestFakeEngine_RequireConfig(t *testing.T) {
	dir := t.TempDir()
	fe := &FakeEngine{Results: MGResults(), RequireConfig: "tallies.xml"}

	exec, err := fe.Run(context.Background(), engine.Invocation{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 2, exec.ExitCode)
	assert.NoFileExists(t, filepath.Join(dir, DefaultArtifact))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tallies.xml"), []byte("<tallies/>"), 0o644))
	exec, err = fe.Run(context.Background(), engine.Invocation{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 0, exec.ExitCode)
}

func TestFakeEngine_Failures(t *testing.T) {
	startErr := errors.New("exec: \"openmc\": executable file not found in $PATH")
	_, err := (&FakeEngine{Err: startErr}).Run(context.Background(), engine.Invocation{Dir: t.TempDir()})
	assert.ErrorIs(t, err, startErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&FakeEngine{Block: true}).Run(ctx, engine.Invocation{Dir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}
