package metadata

import (
	"log"

	"github.com/BurntSushi/migration"
)

// dbVersion tracks the applied schema version in its own table, created
// lazily on first use so a brand-new database needs no bootstrap step
// beyond pointing Open at it.
type dbVersion struct {
	GetSQL    string
	SetSQL    string
	CreateSQL string
}

var mysqlVersioning = dbVersion{
	GetSQL:    `SELECT max(version) FROM shard_migration_version`,
	SetSQL:    `INSERT INTO shard_migration_version (version, applied) VALUES (?, now())`,
	CreateSQL: `CREATE TABLE shard_migration_version (version INTEGER, applied datetime)`,
}

// Get reports the current schema version, treating a query failure as
// version 0 since the only expected failure is the version table not
// existing yet.
func (d dbVersion) Get(tx migration.LimitedTx) (int, error) {
	var version int
	row := tx.QueryRow(d.GetSQL)
	if err := row.Scan(&version); err != nil {
		log.Println("metadata: " + err.Error())
		return 0, nil
	}
	return version, nil
}

// Set records version, creating the version table on first call.
func (d dbVersion) Set(tx migration.LimitedTx, version int) error {
	if _, err := tx.Exec(d.SetSQL, version); err == nil {
		return nil
	}
	if _, err := tx.Exec(d.CreateSQL); err != nil {
		return err
	}
	_, err := tx.Exec(d.SetSQL, version)
	return err
}
