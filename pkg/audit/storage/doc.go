// Package storage provides storage backends for audit records.
//
//   - MemoryStorage keeps records in a map and is the default backend
//   - SQLiteStorage keeps records in a SQLite database through either the
//     cgo driver (mattn/go-sqlite3, driver name "sqlite3") or the pure Go
//     driver (modernc.org/sqlite, driver name "sqlite")
//
// New picks the backend from the audit configuration section:
//
//	store, err := storage.New(&cfg.Audit, logger)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
package storage
