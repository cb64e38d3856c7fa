package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"reminder/internal/logger"
)

type SQLiteStore struct {
	sqlStore
}

func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "data/reminder.db"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath) // драйвер modernc, без cgo
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// одна коллекция, один писатель
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{sqlStore{
		db:          db,
		backend:     DriverSQLite,
		placeholder: func(int) string { return "?" },
	}}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug(ctx, "sqlite store ready", "path", dbPath)
	return s, nil
}
