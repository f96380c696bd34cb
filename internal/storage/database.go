// Package storage keeps alerts and products in sqlite.
package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pricewatch/hardgamers-watcher/logger"
	apperrors "github.com/pricewatch/hardgamers-watcher/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

const component = "storage"

// schema is applied on every Open; amounts are decimal text, timestamps RFC 3339 text
var schema = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		search_text TEXT NOT NULL,
		target_price TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts (is_active, created_at)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		price TEXT NOT NULL,
		shop TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT ''
	)`,
}

// DB wraps the sqlite connection
type DB struct {
	conn *sql.DB
	log  *logger.Logger
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.NewStorage(component, "failed to open database", err)
	}

	// every connection to :memory: is a separate database
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn, log: logger.ForStorage()}

	if err := db.init(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	db.log.Info().Str("path", path).Msg("Database initialized")
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Alerts returns the alert repository backed by db
func (db *DB) Alerts() *AlertRepository {
	return &AlertRepository{db: db}
}

// Products returns the product repository backed by db
func (db *DB) Products() *ProductRepository {
	return &ProductRepository{db: db}
}

func (db *DB) init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewStorage(component, "failed to apply schema", err)
		}
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
