package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/leadrec/blobstore"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	store, err := New(ctx, bucket,
		WithPrefix(fmt.Sprintf("test-leadrec-%d/", time.Now().UnixNano())),
		WithEndpoint(os.Getenv("S3_ENDPOINT")),
	)
	require.NoError(t, err)

	t.Run("Create and Read", func(t *testing.T) {
		data := make([]byte, 1024*1024)
		_, _ = rand.Read(data)

		w, err := store.Create(ctx, "models/test.lrm")
		require.NoError(t, err)
		n, err := w.Write(data)
		require.NoError(t, err)
		assert.Equal(t, len(data), n)
		require.NoError(t, w.Close())

		names, err := store.List(ctx, "models/")
		require.NoError(t, err)
		assert.Contains(t, names, "models/test.lrm")

		blob, err := store.Open(ctx, "models/test.lrm")
		require.NoError(t, err)
		defer blob.Close()
		assert.Equal(t, int64(len(data)), blob.Size())

		buf := make([]byte, 100)
		n, err = blob.ReadAt(ctx, buf, 1024)
		require.NoError(t, err)
		assert.Equal(t, 100, n)
		assert.Equal(t, data[1024:1124], buf)

		all, err := blobstore.ReadAll(ctx, blob)
		require.NoError(t, err)
		assert.Equal(t, data, all)

		require.NoError(t, store.Delete(ctx, "models/test.lrm"))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "nonexistent")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
