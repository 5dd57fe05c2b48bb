package embedding

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const DefaultPositionCacheSize = 128

type positionKey struct {
	batch  int
	length int
	device Device
}

// positionCache is a bounded LRU of position index matrices. The device is
// part of the key, so moving a module never serves indices built for
// another placement.
type positionCache struct {
	mu       sync.Mutex
	capacity int
	entries  *orderedmap.OrderedMap[positionKey, [][]int]
}

func newPositionCache(capacity int) *positionCache {
	if capacity <= 0 {
		capacity = DefaultPositionCacheSize
	}
	return &positionCache{
		capacity: capacity,
		entries:  orderedmap.New[positionKey, [][]int](),
	}
}

func (c *positionCache) get(batch, length int, device Device) [][]int {
	key := positionKey{batch: batch, length: length, device: device}

	c.mu.Lock()
	defer c.mu.Unlock()

	if indices, ok := c.entries.Get(key); ok {
		_ = c.entries.MoveToBack(key)
		return indices
	}

	indices := makePositionIndices(batch, length)
	c.entries.Set(key, indices)

	for c.entries.Len() > c.capacity {
		oldest := c.entries.Oldest()
		c.entries.Delete(oldest.Key)
		if DebugLog != nil {
			DebugLog("evicted position indices batch=%d length=%d device=%s",
				oldest.Key.batch, oldest.Key.length, oldest.Key.device)
		}
	}

	return indices
}

func (c *positionCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// makePositionIndices returns a [batch][length] matrix whose rows all alias
// the same [0, 1, ..., length-1] slice. Callers must not write to it.
func makePositionIndices(batch, length int) [][]int {
	row := make([]int, length)
	for i := range row {
		row[i] = i
	}

	indices := make([][]int, batch)
	for b := range indices {
		indices[b] = row
	}
	return indices
}
