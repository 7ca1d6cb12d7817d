package metadata

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jaspertzx/shardvault/internal/domain"
	shverrors "github.com/jaspertzx/shardvault/internal/errors"
)

// setupSQLStore connects to a real MySQL instance addressed by
// METADATA_TEST_DSN, skipping the test when that variable is unset.
func setupSQLStore(t *testing.T) *SQLStore {
	dsn := os.Getenv("METADATA_TEST_DSN")
	if dsn == "" {
		t.Skip("METADATA_TEST_DSN not set; skipping metadata store integration test")
	}
	store, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStore_InsertFindDelete(t *testing.T) {
	store := setupSQLStore(t)
	ctx := context.Background()

	owner := "owner-" + time.Now().Format("150405.000000000")
	filename := "roundtrip.bin"

	records := []domain.ShardRecord{
		{OwnerID: owner, OriginalFilename: filename, ShardName: filename + ".0.aaa", ShardIndex: 0, ShardSHA256: sha(0), ShardByteSize: 4, OriginalFileSize: 16},
		{OwnerID: owner, OriginalFilename: filename, ShardName: filename + ".1.bbb", ShardIndex: 1, ShardSHA256: sha(1), ShardByteSize: 4, OriginalFileSize: 16},
	}
	for _, rec := range records {
		require.NoError(t, store.InsertShard(ctx, rec))
	}

	found, err := store.FindShards(ctx, owner, filename)
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, 0, found[0].ShardIndex)
	require.Equal(t, 1, found[1].ShardIndex)

	// duplicate primary key is rejected
	err = store.InsertShard(ctx, records[0])
	require.Error(t, err)

	require.NoError(t, store.DeleteFile(ctx, owner, filename))

	found, err = store.FindShards(ctx, owner, filename)
	require.NoError(t, err)
	require.Empty(t, found)

	// idempotent
	require.NoError(t, store.DeleteFile(ctx, owner, filename))
}

func TestSQLStore_UpdateShard(t *testing.T) {
	store := setupSQLStore(t)
	ctx := context.Background()

	owner := "updater-" + time.Now().Format("150405.000000000")
	filename := "heal.bin"
	rec := domain.ShardRecord{
		OwnerID: owner, OriginalFilename: filename, ShardName: filename + ".0.aaa",
		ShardIndex: 0, ShardSHA256: sha(0), ShardByteSize: 4, OriginalFileSize: 16,
	}
	require.NoError(t, store.InsertShard(ctx, rec))
	t.Cleanup(func() { store.DeleteFile(ctx, owner, filename) })

	rec.ShardName = filename + ".0.healed"
	rec.ShardSHA256 = sha(9)
	require.NoError(t, store.UpdateShard(ctx, rec))

	found, err := store.FindShards(ctx, owner, filename)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, rec.ShardName, found[0].ShardName)
	require.Equal(t, rec.ShardSHA256, found[0].ShardSHA256)

	// no row exists at this index for a fresh filename
	err = store.UpdateShard(ctx, domain.ShardRecord{
		OwnerID: owner, OriginalFilename: "missing.bin", ShardName: "missing.0.zzz",
		ShardIndex: 0, ShardSHA256: sha(0), ShardByteSize: 1, OriginalFileSize: 1,
	})
	require.ErrorIs(t, err, shverrors.ErrNotFound)
}

func TestSQLStore_ListOwnedFilenames(t *testing.T) {
	store := setupSQLStore(t)
	ctx := context.Background()

	owner := "lister-" + time.Now().Format("150405.000000000")
	for _, name := range []string{"a.txt", "b.txt"} {
		require.NoError(t, store.InsertShard(ctx, domain.ShardRecord{
			OwnerID: owner, OriginalFilename: name, ShardName: name + ".0.xyz",
			ShardIndex: 0, ShardSHA256: sha(0), ShardByteSize: 1, OriginalFileSize: 1,
		}))
	}
	t.Cleanup(func() {
		store.DeleteFile(ctx, owner, "a.txt")
		store.DeleteFile(ctx, owner, "b.txt")
	})

	listed, err := store.ListOwnedFilenames(ctx, owner)
	require.NoError(t, err)
	require.Len(t, listed, 2)
}

func sha(i int) string {
	const hex = "0123456789abcdef"
	b := make([]byte, 64)
	for j := range b {
		b[j] = hex[(i+j)%16]
	}
	return string(b)
}
