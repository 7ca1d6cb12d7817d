// Package metadata persists ShardRecord rows in a relational store and
// exposes the small, atomic-per-call query surface the orchestrator
// needs to drive reconstruction and listing without touching any
// backend.
package metadata

import (
	"context"

	"github.com/jaspertzx/shardvault/internal/domain"
)

// Store is the metadata persistence contract: every operation is atomic
// per call, with no exposed transactions.
type Store interface {
	// InsertShard fails on primary-key conflict (ownerID,
	// originalFilename, shard_index).
	InsertShard(ctx context.Context, rec domain.ShardRecord) error
	// UpdateShard replaces the shard_name, digest, and size of the row
	// at (ownerID, originalFilename, rec.ShardIndex) in place. Used by
	// self-heal to swap in a freshly minted shard without ever leaving
	// that index without a row, the way a delete followed by an insert
	// would if the insert failed.
	UpdateShard(ctx context.Context, rec domain.ShardRecord) error
	// FindShards returns all rows for (ownerID, originalFilename), sorted
	// ascending by ShardIndex, or an empty slice if none exist.
	FindShards(ctx context.Context, ownerID, originalFilename string) ([]domain.ShardRecord, error)
	// ListOwnedFilenames returns one representative row per distinct
	// original_filename owned by ownerID.
	ListOwnedFilenames(ctx context.Context, ownerID string) ([]domain.ShardRecord, error)
	// DeleteFile removes every row for (ownerID, originalFilename). Idempotent.
	DeleteFile(ctx context.Context, ownerID, originalFilename string) error
	// DeleteShard removes a single row by its (ownerID, shardName) unique key. Idempotent.
	DeleteShard(ctx context.Context, ownerID, shardName string) error
}
