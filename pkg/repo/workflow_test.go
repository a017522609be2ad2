package repo

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"minivcs/pkg/core"
	"minivcs/pkg/storage"
	"minivcs/pkg/storage/cache"
	"minivcs/pkg/storage/disk"
	"minivcs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MetricStore counts backend calls so cache hits can be observed.
type MetricStore struct {
	storage.Store
	putCount int32
	hasCount int32
}

func (m *MetricStore) Put(ctx context.Context, obj core.Object) error {
	atomic.AddInt32(&m.putCount, 1)
	return m.Store.Put(ctx, obj)
}

func (m *MetricStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	atomic.AddInt32(&m.hasCount, 1)
	return m.Store.Has(ctx, hash)
}

// TestWorkflow_RedisCachedStore runs init, add, commit and verify on a disk
// store fronted by the Redis existence cache.
func TestWorkflow_RedisCachedStore(t *testing.T) {
	redisAddr := "localhost:6379"
	if conn, err := net.DialTimeout("tcp", redisAddr, 1*time.Second); err != nil {
		t.Skip("Skipping workflow test: Redis not available")
	} else {
		conn.Close()
	}

	root := t.TempDir()
	ctx := context.Background()

	diskStore, err := disk.NewAdapter(Layout{Root: root}.CommitsDir())
	require.NoError(t, err)
	spy := &MetricStore{Store: diskStore}

	cached, err := cache.NewCachedStore(spy, cache.Config{
		RedisURL:  fmt.Sprintf("redis://%s/0", redisAddr),
		TTL:       time.Hour,
		Namespace: "test:" + root,
	})
	require.NoError(t, err)
	defer cached.Close()

	r, genesis, err := Init(ctx, root, Options{Store: cached})
	require.NoError(t, err)

	_, err = r.Add(ctx, writeWork(t, r, "a.txt", "abc"))
	require.NoError(t, err)
	c, err := r.Commit(ctx, CommitOptions{Title: "cached", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, genesis.ID(), c.Parent)
	assert.Equal(t, int32(2), atomic.LoadInt32(&spy.putCount), "genesis and one commit reach the disk")

	// storing the same record again is absorbed by the cache
	require.NoError(t, cached.Put(ctx, c))
	assert.Equal(t, int32(2), atomic.LoadInt32(&spy.putCount))

	report, err := r.Verify(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, []types.Hash{c.ID(), genesis.ID()}, report.Reachable)
}
