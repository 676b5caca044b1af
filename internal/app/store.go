package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/okian/accelstream/internal/adapters/storage/csvstore"
	"github.com/okian/accelstream/internal/adapters/storage/sqlitestore"
	"github.com/okian/accelstream/internal/config"
	"github.com/okian/accelstream/internal/domain/stream"
)

// Record sink kinds.
const (
	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
)

const defaultDBName = "recordings.db"

// sqliteSession owns both the session and its database handle.
type sqliteSession struct {
	*sqlitestore.Session
	db *sqlitestore.DB
}

func (s *sqliteSession) Close() error {
	return errors.Join(s.Session.Close(), s.db.Close())
}

// DBPath resolves the SQLite file for cfg.
func DBPath(cfg *config.Config) string {
	if cfg.DBPath != "" {
		return cfg.DBPath
	}
	return filepath.Join(cfg.OutputDir, defaultDBName)
}

// openStore opens the record sink for one session and returns it with a
// description for logs and stats.
func openStore(ctx context.Context, cfg *config.Config) (stream.Store, string, error) {
	switch cfg.Store {
	case StoreCSV:
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return nil, "", fmt.Errorf("create output dir: %w", err)
		}
		st, err := csvstore.CreateNext(cfg.OutputDir, cfg.Activity)
		if err != nil {
			return nil, "", err
		}
		return st, st.Path(), nil
	case StoreSQLite:
		path := DBPath(cfg)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, "", fmt.Errorf("create db dir: %w", err)
		}
		db, err := sqlitestore.Open(ctx, path)
		if err != nil {
			return nil, "", err
		}
		sess, err := db.StartSession(ctx, uuid.NewString(), cfg.Activity)
		if err != nil {
			_ = db.Close()
			return nil, "", err
		}
		return &sqliteSession{Session: sess, db: db}, path + "#" + sess.ID(), nil
	}
	return nil, "", fmt.Errorf("unknown store %q", cfg.Store)
}
