// Package database owns the sqlite store behind the downloaded-video index
// and watch progress.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	retry "github.com/avast/retry-go/v4"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config carries store settings.
type Config struct {
	DatabasePath string
}

// DB bundles the connection with its repositories.
type DB struct {
	conn      *sql.DB
	Downloads *DownloadRepository
	Progress  *ProgressRepository
}

// NewDB opens (creating if needed) the database and runs pending migrations.
func NewDB(cfg Config) (*DB, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", cfg.DatabasePath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// another process may still hold the file right after shutdown
	if err := retry.Do(conn.Ping,
		retry.Attempts(5),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		conn.Close()
		return nil, err
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{
		conn:      conn,
		Downloads: &DownloadRepository{conn: conn},
		Progress:  &ProgressRepository{conn: conn},
	}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
