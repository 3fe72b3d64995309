package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etamimi93/openmc/internal/tally"
)

func TestRenderConfig_Deterministic(t *testing.T) {
	first, err := RenderConfig(mgBuilder)
	require.NoError(t, err)
	second, err := RenderConfig(mgBuilder)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, ConfigHash(first), ConfigHash(second))
}

func TestRenderConfig_PropagatesBuildError(t *testing.T) {
	_, err := RenderConfig(BuilderFunc(func(spec *tally.Specification) error {
		tl := tally.NewTally(1)
		return spec.AddTally(tl)
	}))
	// An empty tally is accepted by the builder but cannot be serialized.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tally.scores")
}

func TestConfigHash_DomainSeparated(t *testing.T) {
	assert.Len(t, ConfigHash([]byte("x")), 64)
	assert.NotEqual(t, ConfigHash([]byte("x")), ConfigHash([]byte("y")))
}

func TestSequenceGenerator(t *testing.T) {
	g := NewSequenceGenerator("run")
	assert.Equal(t, "run-1", g.Generate())
	assert.Equal(t, "run-2", g.Generate())
}

func TestUUIDv7Generator_Sortable(t *testing.T) {
	var g UUIDv7Generator
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.Less(t, a, b)
}
