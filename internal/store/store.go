// Package store provides the local SQLite store for yoga courses and their
// class sessions.
//
// The database runs in embedded mode (ncruces/go-sqlite3, WASM build of
// SQLite) with WAL journaling so background sync pushes can read while the
// foreground writes.
//
// Schema:
//   - yoga_courses: one row per weekly course
//   - yoga_classes: one row per dated session, courseId references
//     yoga_courses(id) with ON DELETE CASCADE
//   - index_yoga_classes_courseId: per-course lookups
//
// Ids come from AUTOINCREMENT columns, so they increase monotonically and
// are never reused, even after deletes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SchemaVersion is the only schema version this package knows. It is
// recorded in PRAGMA user_version.
const SchemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS yoga_courses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	dayOfTheWeek TEXT NOT NULL,
	time TEXT NOT NULL,
	capacity TEXT NOT NULL,
	duration TEXT NOT NULL,
	price TEXT NOT NULL,
	typeOfClass TEXT NOT NULL,
	description TEXT
);

CREATE TABLE IF NOT EXISTS yoga_classes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	courseId INTEGER NOT NULL,
	date TEXT NOT NULL,
	teacher TEXT NOT NULL,
	comments TEXT,
	FOREIGN KEY (courseId) REFERENCES yoga_courses(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS index_yoga_classes_courseId ON yoga_classes(courseId);
`

// DB is the local course/class store.
type DB struct {
	conn *sql.DB
	path string
}

// querier is the subset of *sql.DB and *sql.Tx used by shared helpers.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if needed) the store at path and ensures the schema
// exists. Reopening an existing store keeps its data.
//
// Every failure is reported as ErrStorageUnavailable.
//
// The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	path = strings.TrimPrefix(path, "file:")
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: database path is required", ErrStorageUnavailable)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %w", ErrStorageUnavailable, err)
	}

	// Pragmas go in the DSN so every pooled connection gets them;
	// foreign_keys in particular is per connection.
	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrStorageUnavailable, err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrStorageUnavailable, err)
	}

	conn.SetMaxOpenConns(4)
	// Idle connections are kept for the life of the process: closing the
	// last one checkpoints and deletes the -wal file, which watchers would
	// see as a change.
	conn.SetMaxIdleConns(2)

	db := &DB{conn: conn, path: path}
	if err := db.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return db, nil
}

func (db *DB) initSchema(ctx context.Context) error {
	var version int
	if err := db.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (this build supports %d)", version, SchemaVersion)
	}

	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	if version == 0 {
		if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close checkpoints the WAL and closes the database.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// Counts returns the number of courses and class sessions.
func (db *DB) Counts(ctx context.Context) (courses, classes int, err error) {
	err = db.conn.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM yoga_courses), (SELECT COUNT(*) FROM yoga_classes)",
	).Scan(&courses, &classes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count records: %w", err)
	}
	return courses, classes, nil
}

// withTx runs fn in a transaction, committing if it returns nil.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
