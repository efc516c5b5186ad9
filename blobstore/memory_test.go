package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "ns/data/a.snap", data))
	data[0] = 'X' // Put copies

	got, err := ReadAll(ctx, store, "ns/data/a.snap")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))

	blob, err := store.Open(ctx, "ns/data/a.snap")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	r, err := blob.ReadRange(ctx, 3, 4)
	require.NoError(t, err)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(content))

	_, err = blob.ReadRange(ctx, 10, 1)
	assert.ErrorIs(t, err, io.EOF)

	w, err := store.Create(ctx, "ns/CURRENT")
	require.NoError(t, err)
	_, err = w.Write([]byte("ns/manifests/a.json"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.Error(t, err)

	names, err := store.List(ctx, "ns/")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns/CURRENT", "ns/data/a.snap"}, names)

	require.NoError(t, store.Delete(ctx, "ns/CURRENT"))
	require.NoError(t, store.Delete(ctx, "ns/CURRENT"))
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ns/data/a.snap"}, names)
}

func TestMemoryStore_Abort(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	w, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	require.NoError(t, w.Close())

	_, err = store.Open(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
}
