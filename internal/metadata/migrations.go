package metadata

import "github.com/BurntSushi/migration"

// List of migrations to perform. Add new ones to the end. DO NOT
// change the order of items already in this list.
var migrations = []migration.Migrator{
	shardSchemaV1,
}

// shardSchemaV1 creates the "shard" table per the logical schema:
// one row per stored shard, primary-keyed on (user_id,
// original_filename, shard_index) so that the same filename chosen by
// two different owners never collides, and uniquely keyed on filename
// (the minted shard_name) since that column already embeds a uuid and
// so is unique on its own.
func shardSchemaV1(tx migration.LimitedTx) error {
	var statements = []string{
		`CREATE TABLE IF NOT EXISTS shard (
			user_id             VARCHAR(255) NOT NULL,
			filename            VARCHAR(255) NOT NULL,
			original_filename   VARCHAR(255) NOT NULL,
			original_file_size  BIGINT       NOT NULL,
			shard_index         INT          NOT NULL,
			filesha256          CHAR(64)     NOT NULL,
			byte_size           BIGINT       NOT NULL,
			created_at          TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, original_filename, shard_index),
			UNIQUE KEY uniq_shard_name (filename)
		)`,
		`CREATE INDEX idx_shard_owner ON shard (user_id, original_filename)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
