// Package domain holds the data types shared across the erasure-coded
// object store: the per-shard record persisted in the metadata store
// and the small value types built on top of it.
package domain

import "time"

// ShardRecord is one row of the shard metadata table: everything needed
// to locate, verify, and account for a single shard of a stored file.
//
// Field tags follow the column names in the schema created by
// internal/metadata's migrations.
type ShardRecord struct {
	OwnerID          string    `db:"user_id"`
	OriginalFilename string    `db:"original_filename"`
	ShardName        string    `db:"filename"`
	ShardIndex       int       `db:"shard_index"`
	ShardSHA256      string    `db:"filesha256"`
	ShardByteSize    int64     `db:"byte_size"`
	OriginalFileSize int64     `db:"original_file_size"`
	CreatedAt        time.Time `db:"created_at"`
}

// FileInfo is one entry of a listing: an owned file plus its shard
// health, as returned by ShardOrchestrator.List.
type FileInfo struct {
	OriginalFilename  string
	OriginalFileSize  int64
	ShardsTotal       int
	ShardsRetrievable int
}
