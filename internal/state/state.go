package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/glebarez/sqlite"
	"github.com/jxwalker/modinstall/internal/config"
)

type DB struct {
	SQL  *sql.DB
	Path string
}

func Open(cfg *config.Config) (*DB, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if cfg.General.DataRoot == "" {
		return nil, errors.New("general.data_root required")
	}
	if err := os.MkdirAll(cfg.General.DataRoot, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.General.DataRoot, "state.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=journal_mode(WAL)&_fk=1", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := initSchema(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &DB{SQL: sqldb, Path: path}, nil
}

func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS install_settings (
			modlist_path TEXT PRIMARY KEY,
			installation_location TEXT NOT NULL DEFAULT '',
			download_location TEXT NOT NULL DEFAULT '',
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS install_runs (
			id TEXT PRIMARY KEY,
			modlist_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			download_path TEXT NOT NULL,
			status TEXT NOT NULL,
			last_error TEXT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_install_runs_started ON install_runs(started_at DESC);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// CheckIntegrity runs SQLite's integrity check on the database
func (db *DB) CheckIntegrity() error {
	if db == nil || db.SQL == nil {
		return fmt.Errorf("database not open")
	}
	var result string
	if err := db.SQL.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database integrity check failed: %s", result)
	}
	return nil
}
