package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakePositionIndicesBroadcasts(t *testing.T) {
	indices := makePositionIndices(3, 4)

	require.Len(t, indices, 3)
	for _, row := range indices {
		assert.Equal(t, []int{0, 1, 2, 3}, row)
	}
	assert.Same(t, &indices[0][0], &indices[2][0])
}

func TestPositionCacheReuses(t *testing.T) {
	c := newPositionCache(4)

	first := c.get(2, 5, CPU)
	second := c.get(2, 5, CPU)
	assert.Same(t, &first[0][0], &second[0][0])
	assert.Equal(t, 1, c.len())
}

func TestPositionCacheKeysOnDevice(t *testing.T) {
	c := newPositionCache(4)

	cpu := c.get(2, 5, CPU)
	gpu := c.get(2, 5, Device("cuda:0"))
	assert.NotSame(t, &cpu[0][0], &gpu[0][0])
	assert.Equal(t, 2, c.len())
}

func TestPositionCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newPositionCache(2)

	a := c.get(1, 1, CPU)
	c.get(1, 2, CPU)
	c.get(1, 1, CPU) // refresh (1, 1)
	c.get(1, 3, CPU) // evicts (1, 2)

	assert.Equal(t, 2, c.len())
	_, ok := c.entries.Get(positionKey{batch: 1, length: 2, device: CPU})
	assert.False(t, ok)

	again := c.get(1, 1, CPU)
	assert.Same(t, &a[0][0], &again[0][0])
}

func TestForwardCachesPerDevice(t *testing.T) {
	e := newTestEmbedding(t, Options{VocabSize: 10, HiddenSize: 4, MaxSequenceLength: 5})

	_, err := e.Forward([][]int{{1, 2, 3}})
	require.NoError(t, err)
	_, err = e.Forward([][]int{{3, 2, 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, e.positions.len())

	e.To(Device("cuda:1"))
	assert.Equal(t, Device("cuda:1"), e.Device())
	_, err = e.Forward([][]int{{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, e.positions.len())
}

func TestNewPositionCacheDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultPositionCacheSize, newPositionCache(0).capacity)
}
