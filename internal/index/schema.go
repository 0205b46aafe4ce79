// Package index is the SQLite metadata store: files, tags, file-tag links and
// backlinks for one vault. It is a derived cache of file content; rows are
// only written by applying scanner output.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/vaultedit/internal/apperr"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	path         TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	name_key     TEXT NOT NULL,
	checksum     TEXT NOT NULL DEFAULT '',
	scanned_at   DATETIME
);

CREATE TABLE IF NOT EXISTS tags (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS file_tags (
	file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	tag_id  INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	UNIQUE(file_id, tag_id)
);

CREATE TABLE IF NOT EXISTS backlinks (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	source_file_id   INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
	target_name      TEXT NOT NULL,
	target_key       TEXT NOT NULL,
	resolved_file_id INTEGER REFERENCES files(id) ON DELETE SET NULL,
	UNIQUE(source_file_id, target_name)
);

CREATE INDEX IF NOT EXISTS idx_files_name_key ON files(name_key);
CREATE INDEX IF NOT EXISTS idx_file_tags_tag ON file_tags(tag_id);
CREATE INDEX IF NOT EXISTS idx_backlinks_target_key ON backlinks(target_key);
CREATE INDEX IF NOT EXISTS idx_backlinks_resolved ON backlinks(resolved_file_id);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn    *sql.DB
	created bool
}

// Open opens (or creates) the SQLite database at path and applies the
// schema. Schema creation never alters existing tables. Any failure to
// read or verify an existing store wraps apperr.ErrStoreIO.
//
// Write transactions begin IMMEDIATE so that concurrent editor processes
// on the same vault queue on the file lock instead of interleaving.
func Open(path string) (*DB, error) {
	_, statErr := os.Stat(path)
	created := errors.Is(statErr, os.ErrNotExist)

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w: %v", apperr.ErrStoreIO, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w: %v", apperr.ErrStoreIO, err)
	}
	if !created {
		var res string
		if err := conn.QueryRow(`PRAGMA quick_check`).Scan(&res); err != nil || res != "ok" {
			conn.Close()
			if err == nil {
				err = errors.New(res)
			}
			return nil, fmt.Errorf("index: integrity check: %w: %v", apperr.ErrStoreIO, err)
		}
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w: %v", apperr.ErrStoreIO, err)
	}
	return &DB{conn: conn, created: created}, nil
}

// Created reports whether Open created a new store file.
func (db *DB) Created() bool {
	return db.created
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// classify maps lock contention to apperr.ErrStoreConflict.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("index: %s: %w: %v", op, apperr.ErrStoreConflict, err)
	}
	return fmt.Errorf("index: %s: %w", op, err)
}

// withTx runs fn in a write transaction.
func (db *DB) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return classify(op+": begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(op+": commit", err)
	}
	return nil
}
