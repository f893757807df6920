package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mercator-hq/rulekit/pkg/audit"
	"mercator-hq/rulekit/pkg/config"
)

// New creates the storage backend selected by cfg.Backend.
func New(cfg *config.AuditConfig, logger *slog.Logger) (audit.Storage, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStorage(), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "." && cfg.SQLite.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, audit.NewStorageError("sqlite", "open", err)
			}
		}
		sqliteCfg := DefaultSQLiteConfig()
		sqliteCfg.Driver = cfg.SQLite.Driver
		sqliteCfg.Path = cfg.SQLite.Path
		if cfg.SQLite.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.SQLite.BusyTimeout
		}
		return NewSQLiteStorage(sqliteCfg, logger)
	default:
		return nil, fmt.Errorf("unsupported audit backend %q", cfg.Backend)
	}
}
