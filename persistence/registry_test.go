package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/leadrec/blobstore"
	"github.com/hupe1980/leadrec/resource"
)

func TestRegistry(t *testing.T) {
	stores := map[string]func(t *testing.T) blobstore.BlobStore{
		"memory": func(*testing.T) blobstore.BlobStore { return blobstore.NewMemoryStore() },
		"local":  func(t *testing.T) blobstore.BlobStore { return blobstore.NewLocalStore(t.TempDir()) },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 64 << 20})
			reg := NewRegistry(newStore(t), WithCompression(CompressionLZ4), WithController(rc))

			_, err := reg.LoadCurrent(ctx)
			require.ErrorIs(t, err, ErrNoCurrentModel)
			entries, err := reg.List(ctx, false)
			require.NoError(t, err)
			assert.Empty(t, entries)

			first := fitModel(t, 50, 1)
			name1, err := reg.Publish(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, ModelName(first.ID), name1)

			cur, err := reg.LoadCurrent(ctx)
			require.NoError(t, err)
			assertModelEqual(t, first, cur)

			second := fitModel(t, 60, 2)
			name2, err := reg.Publish(ctx, second)
			require.NoError(t, err)

			current, err := reg.Current(ctx)
			require.NoError(t, err)
			assert.Equal(t, name2, current)

			cur, err = reg.LoadCurrent(ctx)
			require.NoError(t, err)
			assertModelEqual(t, second, cur)

			old, err := reg.Load(ctx, first.ID)
			require.NoError(t, err)
			assertModelEqual(t, first, old)

			entries, err = reg.List(ctx, true)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			byID := map[uuid.UUID]Entry{}
			for _, e := range entries {
				byID[e.ID] = e
				assert.Positive(t, e.Size)
				require.NotNil(t, e.Manifest)
				assert.Equal(t, e.ID.String(), e.Manifest.ModelID)
			}
			assert.False(t, byID[first.ID].Current)
			assert.True(t, byID[second.ID].Current)
			assert.Equal(t, 60, byID[second.ID].Manifest.Rows)

			require.ErrorIs(t, reg.Delete(ctx, second.ID), ErrModelInUse)
			require.NoError(t, reg.Delete(ctx, first.ID))
			_, err = reg.Load(ctx, first.ID)
			assert.ErrorIs(t, err, blobstore.ErrNotFound)

			entries, err = reg.List(ctx, false)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Nil(t, entries[0].Manifest)
		})
	}
}

func TestRegistry_UploadDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	reg := NewRegistry(store)

	m := fitModel(t, 20, 3)
	name, err := reg.Upload(ctx, m)
	require.NoError(t, err)

	_, err = reg.Current(ctx)
	assert.ErrorIs(t, err, ErrNoCurrentModel)

	require.NoError(t, store.Put(ctx, CurrentName, []byte(name+"\n")))
	cur, err := reg.LoadCurrent(ctx)
	require.NoError(t, err)
	assertModelEqual(t, m, cur)
}

func TestRegistry_ListSkipsForeignBlobs(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "models/readme.txt", []byte("x")))
	require.NoError(t, store.Put(ctx, "models/nested/"+uuid.NewString()+Extension, []byte("x")))

	entries, err := NewRegistry(store).List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistry_CorruptArtifact(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	id := uuid.New()
	require.NoError(t, store.Put(ctx, ModelName(id), []byte("garbage")))
	require.NoError(t, store.Put(ctx, CurrentName, []byte(ModelName(id))))

	_, err := NewRegistry(store).LoadCurrent(ctx)
	assert.ErrorIs(t, err, ErrCorruptModel)
}
