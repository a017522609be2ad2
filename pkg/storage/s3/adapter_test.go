package s3

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"minivcs/pkg/core"
	"minivcs/pkg/storage"
	"minivcs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isMinIOAvailable dials the local MinIO port so the integration test can
// skip instead of failing on machines without it.
func isMinIOAvailable(t *testing.T) bool {
	host := "localhost:9000"
	conn, err := net.DialTimeout("tcp", host, 1*time.Second)
	if err != nil {
		t.Logf("MinIO not reachable at %s. Skipping integration tests.", host)
		return false
	}
	conn.Close()
	return true
}

func TestNewAdapter_RequiresBucket(t *testing.T) {
	_, err := NewAdapter(context.Background(), Config{Region: "us-east-1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestNewAdapter_DefaultPrefix(t *testing.T) {
	a, err := NewAdapter(context.Background(), Config{
		Region:          "us-east-1",
		Bucket:          "b",
		AccessKeyID:     "k",
		SecretAccessKey: "s",
	})
	require.NoError(t, err)
	h := core.CalculateBlobHash([]byte("x"))
	assert.Equal(t, "commits/"+h.String(), a.key(h))
}

func TestS3Adapter_Integration(t *testing.T) {
	if !isMinIOAvailable(t) {
		t.Skip("Skipping S3 integration tests (MinIO down)")
	}

	ctx := context.Background()
	store, err := NewAdapter(ctx, Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "minivcs-test-bucket",
		Prefix:          "test-" + time.Now().Format("20060102150405.000000") + "/",
		AccessKeyID:     "admin",
		SecretAccessKey: "password",
	})
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))

	obj := core.NewBlob([]byte("Hello S3 World from minivcs"))

	t.Run("Put", func(t *testing.T) {
		assert.NoError(t, store.Put(ctx, obj))
		assert.NoError(t, store.Put(ctx, obj), "second put is a no-op")
	})

	t.Run("Has", func(t *testing.T) {
		exists, err := store.Has(ctx, obj.ID())
		assert.NoError(t, err)
		assert.True(t, exists)

		exists, _ = store.Has(ctx, core.CalculateBlobHash([]byte("absent")))
		assert.False(t, exists)
	})

	t.Run("Get", func(t *testing.T) {
		reader, err := store.Get(ctx, obj.ID())
		require.NoError(t, err)
		defer reader.Close()

		content, err := io.ReadAll(reader)
		assert.NoError(t, err)
		assert.Equal(t, obj.Bytes(), content)

		_, err = store.Get(ctx, core.CalculateBlobHash([]byte("absent")))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListAndExpand", func(t *testing.T) {
		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, list, obj.ID())

		got, err := store.ExpandHash(ctx, types.HashPrefix(obj.ID().Short()))
		require.NoError(t, err)
		assert.Equal(t, obj.ID(), got)
	})
}
