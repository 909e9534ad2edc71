package client

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; all mutation entry points serialize here.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entities (
			type       TEXT NOT NULL,
			id         TEXT NOT NULL,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			deleted_at TEXT,
			PRIMARY KEY (type, id)
		);
		CREATE INDEX IF NOT EXISTS idx_entities_updated ON entities(type, updated_at);
		CREATE INDEX IF NOT EXISTS idx_entities_deleted ON entities(deleted_at);

		CREATE TABLE IF NOT EXISTS sync_queue (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			action          TEXT NOT NULL,
			entity_type     TEXT NOT NULL,
			entity_id       TEXT NOT NULL,
			payload         TEXT NOT NULL,
			deleted         INTEGER NOT NULL DEFAULT 0,
			enqueued_at     TEXT NOT NULL,
			attempts        INTEGER NOT NULL DEFAULT 0,
			last_error      TEXT NOT NULL DEFAULT '',
			next_attempt_at TEXT NOT NULL,
			UNIQUE (entity_type, entity_id)
		);
		CREATE INDEX IF NOT EXISTS idx_queue_order ON sync_queue(enqueued_at, entity_id);

		CREATE TABLE IF NOT EXISTS sync_state (
			entity_type TEXT PRIMARY KEY,
			watermark   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS effect_followups (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_id TEXT NOT NULL,
			effect     TEXT NOT NULL,
			error      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			resolved   INTEGER NOT NULL DEFAULT 0
		);
	`)
	return err
}
