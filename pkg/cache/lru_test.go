package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"orderflow/pkg/cache"
	"orderflow/pkg/logger"
	"orderflow/pkg/metric"

	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, capacity int) cache.Cache[int, string] {
	t.Helper()

	c, err := cache.NewLRUCache[int, string](
		"test",
		capacity,
		logger.NewNop(),
		metric.NewFactory().Cache(),
	)
	require.NoError(t, err)
	return c
}

type cacheOperation struct {
	op    string
	key   int
	value string
	ttl   time.Duration
}

func TestLRUCache_GetPut(t *testing.T) {
	type lookup struct {
		key   int
		value string
		ok    bool
	}

	testCases := []struct {
		desc     string
		capacity int
		ops      []cacheOperation
		lookups  []lookup
		len      int
	}{
		{
			desc:     "BasicGetPut",
			capacity: 2,
			ops: []cacheOperation{
				{op: "put", key: 1, value: "one"},
				{op: "put", key: 2, value: "two"},
			},
			lookups: []lookup{
				{key: 1, value: "one", ok: true},
				{key: 2, value: "two", ok: true},
				{key: 3, ok: false},
			},
			len: 2,
		},
		{
			desc:     "LRUEviction",
			capacity: 2,
			ops: []cacheOperation{
				{op: "put", key: 1, value: "one"},
				{op: "put", key: 2, value: "two"},
				{op: "get", key: 1},
				{op: "put", key: 3, value: "three"},
			},
			lookups: []lookup{
				{key: 1, value: "one", ok: true},
				{key: 2, ok: false},
				{key: 3, value: "three", ok: true},
			},
			len: 2,
		},
		{
			desc:     "PutOverwritesExistingKey",
			capacity: 2,
			ops: []cacheOperation{
				{op: "put", key: 1, value: "one"},
				{op: "put", key: 1, value: "uno"},
			},
			lookups: []lookup{
				{key: 1, value: "uno", ok: true},
			},
			len: 1,
		},
		{
			desc:     "CapacityOne",
			capacity: 1,
			ops: []cacheOperation{
				{op: "put", key: 1, value: "one"},
				{op: "put", key: 2, value: "two"},
			},
			lookups: []lookup{
				{key: 1, ok: false},
				{key: 2, value: "two", ok: true},
			},
			len: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			c := newTestCache(t, tc.capacity)

			for _, op := range tc.ops {
				switch op.op {
				case "put":
					c.Put(op.key, op.value, op.ttl)
				case "get":
					c.Get(op.key)
				}
			}

			for _, l := range tc.lookups {
				value, ok := c.Get(l.key)
				require.Equal(t, l.ok, ok, "key %d presence", l.key)
				if l.ok {
					require.Equal(t, l.value, value, "key %d value", l.key)
				}
			}
			require.Equal(t, tc.len, c.Len())
		})
	}
}

func TestLRUCache_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := cache.NewLRUCache[int, string](
			"test",
			capacity,
			logger.NewNop(),
			metric.NewFactory().Cache(),
		)
		require.Error(t, err)
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := newTestCache(t, 10)

	c.Put(1, "short", 20*time.Millisecond)
	c.Put(2, "forever", 0)

	value, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "short", value)

	require.Eventually(t, func() bool {
		_, stillThere := c.Get(1)
		return !stillThere
	}, time.Second, 10*time.Millisecond)

	_, ok = c.Get(2)
	require.True(t, ok)
}

func TestLRUCache_Has(t *testing.T) {
	c := newTestCache(t, 2)

	c.Put(1, "one", 0)

	require.True(t, c.Has(1))
	require.False(t, c.Has(2))

	// Has must not refresh recency: key 1 stays the eviction candidate.
	c.Put(2, "two", 0)
	c.Get(2)
	c.Has(1)
	c.Put(3, "three", 0)

	require.False(t, c.Has(1))
	require.True(t, c.Has(2))
	require.True(t, c.Has(3))
}

func TestLRUCache_Remove(t *testing.T) {
	c := newTestCache(t, 2)

	c.Put(1, "one", 0)

	require.True(t, c.Remove(1))
	require.False(t, c.Remove(1))
	require.False(t, c.Has(1))
	require.Zero(t, c.Len())
}

func TestLRUCache_Purge(t *testing.T) {
	c := newTestCache(t, 10)

	for i := range 5 {
		c.Put(i, fmt.Sprintf("value-%d", i), 0)
	}
	require.Equal(t, 5, c.Len())

	c.Purge()

	require.Zero(t, c.Len())
	require.Equal(t, 10, c.Capacity())
}

func TestLRUCache_OnEvicted(t *testing.T) {
	c := newTestCache(t, 1)

	var (
		mu      sync.Mutex
		evicted []int
	)
	c.SetOnEvicted(func(key int, _ string) {
		mu.Lock()
		evicted = append(evicted, key)
		mu.Unlock()
	})

	c.Put(1, "one", 0)
	c.Put(2, "two", 0)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1}, evicted)
}

func TestLRUCache_CleanupRemovesExpired(t *testing.T) {
	c := newTestCache(t, 10)

	c.Put(1, "short", 10*time.Millisecond)
	c.Put(2, "forever", 0)

	c.StartCleanup(10 * time.Millisecond)
	defer c.StopCleanup()

	require.Eventually(t, func() bool {
		return c.Len() == 1
	}, time.Second, 10*time.Millisecond)

	require.True(t, c.Has(2))
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(t, 100)

	var wg sync.WaitGroup
	for worker := range 10 {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range 100 {
				key := worker*100 + i
				c.Put(key, fmt.Sprintf("value-%d", key), 0)
				c.Get(key)
				c.Has(key)
			}
		}(worker)
	}
	wg.Wait()

	require.Equal(t, 100, c.Len())
}
