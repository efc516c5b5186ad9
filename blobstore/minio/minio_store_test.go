package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotmap"
	"github.com/hupe1980/slotmap/arena"
	"github.com/hupe1980/slotmap/blobstore"
	"github.com/hupe1980/slotmap/snapshot"
)

// newIntegrationStore connects to the MinIO at MINIO_ENDPOINT (default
// localhost:9000) and skips the test when it is unreachable.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	const bucket = "test-slotmap"

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	if err != nil {
		t.Skipf("minio client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("minio not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}
	return NewStore(client, bucket, "it-"+t.Name()+"/")
}

func TestMinioStore_Integration(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	data := []byte("manifests/0001.json")
	require.NoError(t, store.Put(ctx, "pool/CURRENT", data))

	blob, err := store.Open(ctx, "pool/CURRENT")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 4)
	_, err = blob.ReadAt(ctx, buf, 10)
	require.NoError(t, err)
	assert.Equal(t, "0001", string(buf))

	rc, err := blob.ReadRange(ctx, 15, 100)
	require.NoError(t, err)
	tail, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, ".json", string(tail))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	// An aborted stream never becomes visible.
	w, err := store.Create(ctx, "pool/data/aborted.snap")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	w, err = store.Create(ctx, "pool/data/0001.snap")
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte{0xff}, 520))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "pool/")
	require.NoError(t, err)
	assert.Equal(t, []string{"pool/CURRENT", "pool/data/0001.snap"}, names)

	for _, n := range names {
		require.NoError(t, store.Delete(ctx, n))
	}
	_, err = store.Open(ctx, "pool/CURRENT")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
	require.NoError(t, store.Delete(ctx, "pool/CURRENT"))
}

func TestMinioStore_SnapshotRoundTrip(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	a, err := arena.New(8192)
	require.NoError(t, err)
	defer a.Close()

	h, err := a.Carve(slotmap.Small)
	require.NoError(t, err)
	for range 300 {
		_, err := h.Alloc()
		require.NoError(t, err)
	}

	snap := snapshot.New(store, "pool", snapshot.WithChunkSize(1024))
	saved, err := snap.Save(ctx, a)
	require.NoError(t, err)
	t.Cleanup(func() {
		names, _ := store.List(context.Background(), "pool/")
		for _, n := range names {
			_ = store.Delete(context.Background(), n)
		}
	})

	b, err := arena.New(8192)
	require.NoError(t, err)
	defer b.Close()

	restored, err := snap.Restore(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, restored.ID)
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}

func TestRangeOptions(t *testing.T) {
	opts, n, err := rangeOptions(8, 10, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "bytes=8-11", opts.Header().Get("Range"))

	_, n, err = rangeOptions(0, 4, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestNew_StaticCredentials(t *testing.T) {
	store, err := New("localhost:9000", "bucket",
		WithCredentials("access", "secret"),
		WithPrefix("slots/"),
		WithRegion("us-east-1"),
	)
	require.NoError(t, err)
	assert.Equal(t, "slots/ns/CURRENT", store.key("ns/CURRENT"))
}

func TestMinioBlob_ReadOutOfRange(t *testing.T) {
	b := &minioBlob{size: 4}
	_, err := b.ReadAt(context.Background(), make([]byte, 2), 4)
	assert.ErrorIs(t, err, io.EOF)

	_, err = b.ReadRange(context.Background(), 9, 1)
	assert.ErrorIs(t, err, io.EOF)
}
