package packetcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreateIsIdempotent(t *testing.T) {
	r := NewRegistry(10)
	id := testChannel()

	b1, err := r.GetOrCreate(id)
	require.NoError(t, err)
	b2, err := r.GetOrCreate(id)
	require.NoError(t, err)
	assert.Same(t, b1, b2)
}

func TestRegistryAddRoutesToCorrectBuffer(t *testing.T) {
	r := NewRegistry(10)
	require.NoError(t, r.Add(packetAt(t, 1)))

	b, ok := r.Get(testChannel())
	require.True(t, ok)
	assert.Equal(t, 1, b.Size())
}

func TestRegistryShutdownClearsChannels(t *testing.T) {
	r := NewRegistry(10)
	require.NoError(t, r.Add(packetAt(t, 1)))
	require.Len(t, r.Channels(), 1)

	r.Shutdown()
	assert.Empty(t, r.Channels())
}
