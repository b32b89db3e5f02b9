// Package sqlite stores metric history in a local SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"mqtt-monitor/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

func NewSqliteDB(dbPath string, log logger.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}

	// One writer per cycle; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	log.Info("history database opened", "path", dbPath)

	if err := runMigration(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func runMigration(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY,
		taken INTEGER NOT NULL,
		host TEXT NOT NULL,
		metric TEXT NOT NULL,
		num REAL,
		text TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_samples_taken ON samples (taken);
	CREATE INDEX IF NOT EXISTS idx_samples_metric_taken ON samples (metric, taken);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate samples table: %w", err)
	}
	return nil
}
