package objstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	exists, err := store.BucketExists(ctx, "imports")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.EnsureBucket(ctx, "imports"))
	exists, err = store.BucketExists(ctx, "imports")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.PutObject(ctx, "imports", "tree/001_Base/data.csv", []byte("id\n")))
	data, err := store.GetObject(ctx, "imports", "tree/001_Base/data.csv")
	require.NoError(t, err)
	assert.Equal(t, "id\n", string(data))
}

func TestLocalStoreGetMissingObject(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	_, err := store.GetObject(context.Background(), "imports", "absent")
	require.Error(t, err)

	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, CodeObjectNotFound, storeErr.Code)
}

func TestLocalStoreListPrefix(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "b", "trees/a/1.csv", []byte("x")))
	require.NoError(t, store.PutObject(ctx, "b", "trees/b/2.csv", []byte("y")))
	require.NoError(t, store.PutObject(ctx, "b", "other/3.csv", []byte("z")))

	keys, err := store.ListPrefix(ctx, "b", "trees")
	require.NoError(t, err)
	assert.Equal(t, []string{"trees/a/1.csv", "trees/b/2.csv"}, keys)

	keys, err = store.ListPrefix(ctx, "b", "missing")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "a/b/c", JoinKey("a", "b", "c"))
	assert.Equal(t, "a/c", JoinKey("a", "", "c"))
	assert.Equal(t, "a/b", JoinKey("/a/", "b/"))
}

func TestFetchTree(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "b", "tree/001_Base/data.csv", []byte("id\n")))
	require.NoError(t, store.PutObject(ctx, "b", "tree/img/CHAIR.png", []byte("png")))

	dir := t.TempDir()
	count, err := FetchTree(ctx, store, "b", "tree", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	data, err := os.ReadFile(filepath.Join(dir, "001_Base", "data.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id\n", string(data))

	_, err = os.Stat(filepath.Join(dir, "img", "CHAIR.png"))
	require.NoError(t, err)
}
