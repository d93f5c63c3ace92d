// ABOUTME: SQLite schema definition and versioned migrations.
// ABOUTME: Defines metrics, tracking, defaults, entries and entry values.
package storage

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// migrate runs forward migrations to bring the schema up to date.
func (d *DB) migrate() error {
	if _, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	version := 0
	row := d.db.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means a fresh database.
		version = 0
	}

	if version < 1 {
		d.log.WithField("version", 1).Debug("applying schema migration")
		if err := d.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// SchemaVersion reports the applied schema version.
func (d *DB) SchemaVersion() (int, error) {
	var version int
	if err := d.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (d *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS metrics (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			metric_type TEXT NOT NULL,
			labels      TEXT,
			min_value   REAL,
			max_value   REAL,
			owner_id    TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS metric_tracking (
			owner_id   TEXT NOT NULL,
			metric_id  TEXT NOT NULL REFERENCES metrics(id) ON DELETE CASCADE,
			baseline   REAL NOT NULL,
			tracked_at TEXT NOT NULL,
			PRIMARY KEY (owner_id, metric_id)
		)`,

		`CREATE TABLE IF NOT EXISTS tracking_defaults (
			metric_id TEXT PRIMARY KEY REFERENCES metrics(id) ON DELETE CASCADE,
			baseline  REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS entries (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			comment     TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS entry_values (
			entry_id  TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			metric_id TEXT NOT NULL REFERENCES metrics(id) ON DELETE CASCADE,
			value     REAL NOT NULL,
			PRIMARY KEY (entry_id, metric_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_metrics_owner ON metrics(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_owner_recorded ON entries(owner_id, recorded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_entry_values_metric ON entry_values(metric_id)`,
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
