//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracleconsulting/lightpoint-ingest/internal/testutil"
)

func TestSnapshotStoreIntegration(t *testing.T) {
	ctx := context.Background()

	s3Container := testutil.NewRustFSContainer(ctx, t)
	defer s3Container.Terminate(ctx)

	store, err := NewSnapshotStore(ctx, SnapshotStoreConfig{
		Endpoint:        s3Container.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-snapshots",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	require.NoError(t, store.EnsureBucket(ctx))
	// Idempotent on an existing bucket
	require.NoError(t, store.EnsureBucket(ctx))

	body := []byte("<html><body><div class=\"govspeak\"><p>Penalties overview</p></div></body></html>")
	require.NoError(t, store.Store(ctx, "CH/CH14100.html", body))

	got, err := store.Get(ctx, "CH/CH14100.html")
	require.NoError(t, err)
	assert.Equal(t, body, got)

	// Re-storing the same key overwrites the previous capture
	updated := []byte("<html><body><p>revised</p></body></html>")
	require.NoError(t, store.Store(ctx, "CH/CH14100.html", updated))
	got, err = store.Get(ctx, "CH/CH14100.html")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, store.Delete(ctx, "CH/CH14100.html"))
	_, err = store.Get(ctx, "CH/CH14100.html")
	assert.Error(t, err)
}
