package metadata

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BurntSushi/migration"
	"github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"

	"github.com/jaspertzx/shardvault/internal/domain"
	shverrors "github.com/jaspertzx/shardvault/internal/errors"
)

// SQLStore implements Store on top of database/sql, with MySQL as the
// bound driver. Pending migrations run in order when Open connects; the
// applied version is tracked in the shard_migration_version table.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// Open connects to dsn and runs any pending migrations. ParseTime is
// forced on regardless of what the caller's DSN sets, since the shard
// table's created_at column scans into a time.Time and the driver
// otherwise returns it as a raw []byte.
func Open(dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: parse dsn: %w", err)
	}
	cfg.ParseTime = true
	dsn = cfg.FormatDSN()

	db, err := migration.OpenWith("mysql", dsn, migrations, mysqlVersioning.Get, mysqlVersioning.Set)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) InsertShard(ctx context.Context, rec domain.ShardRecord) error {
	const stmt = `
		INSERT INTO shard
			(user_id, filename, original_filename, original_file_size, shard_index, filesha256, byte_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, now())`

	_, err := s.db.ExecContext(ctx, stmt,
		rec.OwnerID, rec.ShardName, rec.OriginalFilename, rec.OriginalFileSize,
		rec.ShardIndex, rec.ShardSHA256, rec.ShardByteSize)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %v", shverrors.ErrAlreadyExists, err)
		}
		return fmt.Errorf("insert shard: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateShard(ctx context.Context, rec domain.ShardRecord) error {
	const stmt = `
		UPDATE shard
		SET filename = ?, filesha256 = ?, byte_size = ?
		WHERE user_id = ? AND original_filename = ? AND shard_index = ?`

	res, err := s.db.ExecContext(ctx, stmt,
		rec.ShardName, rec.ShardSHA256, rec.ShardByteSize,
		rec.OwnerID, rec.OriginalFilename, rec.ShardIndex)
	if err != nil {
		return fmt.Errorf("update shard: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return shverrors.ErrNotFound
	}
	return nil
}

func (s *SQLStore) FindShards(ctx context.Context, ownerID, originalFilename string) ([]domain.ShardRecord, error) {
	const query = `
		SELECT user_id, filename, original_filename, original_file_size, shard_index, filesha256, byte_size, created_at
		FROM shard
		WHERE user_id = ? AND original_filename = ?
		ORDER BY shard_index ASC`

	rows, err := s.db.QueryContext(ctx, query, ownerID, originalFilename)
	if err != nil {
		return nil, fmt.Errorf("find shards: %w", err)
	}
	defer rows.Close()

	return scanShardRows(rows)
}

func (s *SQLStore) ListOwnedFilenames(ctx context.Context, ownerID string) ([]domain.ShardRecord, error) {
	// one representative row per file: the shard_index=0 row, which
	// exists for every file in the Stored or Degraded state.
	const query = `
		SELECT user_id, filename, original_filename, original_file_size, shard_index, filesha256, byte_size, created_at
		FROM shard
		WHERE user_id = ? AND shard_index = 0
		ORDER BY original_filename ASC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owned filenames: %w", err)
	}
	defer rows.Close()

	return scanShardRows(rows)
}

func (s *SQLStore) DeleteFile(ctx context.Context, ownerID, originalFilename string) error {
	const stmt = `DELETE FROM shard WHERE user_id = ? AND original_filename = ?`
	_, err := s.db.ExecContext(ctx, stmt, ownerID, originalFilename)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteShard(ctx context.Context, ownerID, shardName string) error {
	const stmt = `DELETE FROM shard WHERE user_id = ? AND filename = ?`
	_, err := s.db.ExecContext(ctx, stmt, ownerID, shardName)
	if err != nil {
		return fmt.Errorf("delete shard: %w", err)
	}
	return nil
}

func scanShardRows(rows *sql.Rows) ([]domain.ShardRecord, error) {
	var records []domain.ShardRecord
	for rows.Next() {
		var rec domain.ShardRecord
		if err := rows.Scan(
			&rec.OwnerID, &rec.ShardName, &rec.OriginalFilename, &rec.OriginalFileSize,
			&rec.ShardIndex, &rec.ShardSHA256, &rec.ShardByteSize, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan shard row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func isDuplicateKey(err error) bool {
	mysqlErr, ok := err.(*mysql.MySQLError)
	if !ok {
		return false
	}
	const erDupEntry = 1062
	if mysqlErr.Number == erDupEntry {
		log.Debugf("metadata: duplicate key: %v", mysqlErr)
		return true
	}
	return false
}
