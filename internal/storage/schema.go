package storage

import (
	"database/sql"
	"errors"
)

const currentSchemaVersion = 1

// migrate creates missing tables and records the schema version.
func (db *DB) migrate() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			)
		`); err != nil {
			return err
		}

		version, err := schemaVersion(tx)
		if err != nil {
			return err
		}
		if version == currentSchemaVersion {
			return nil
		}

		if version < 1 {
			if err := createLedgerTables(tx); err != nil {
				return err
			}
		}

		db.logger.Debug("Ledger schema migrated", "from", version, "to", currentSchemaVersion)
		return setSchemaVersion(tx, currentSchemaVersion)
	})
}

func schemaVersion(tx *sql.Tx) (int, error) {
	var version int
	err := tx.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createLedgerTables(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id     TEXT PRIMARY KEY,
			root       TEXT NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			test_name   TEXT NOT NULL,
			file        TEXT NOT NULL,
			status      TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '',
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_status ON results(status, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
