package audit

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("audit record not found")

// StorageError wraps a backend failure with the operation that caused it.
type StorageError struct {
	Backend   string // "sqlite" or "memory"
	Operation string // "store", "query", "count", "delete", ...
	Cause     error
}

func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit %s %s failed: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// QueryError reports a query rejected before reaching storage.
type QueryError struct {
	Query *Query
	Cause error
}

func NewQueryError(query *Query, cause error) *QueryError {
	return &QueryError{Query: query, Cause: cause}
}

func (e *QueryError) Error() string {
	return "invalid audit query: " + e.Cause.Error()
}

func (e *QueryError) Unwrap() error { return e.Cause }

// RecorderError reports an outcome the recorder dropped.
type RecorderError struct {
	RecordID string
	Cause    error
}

func NewRecorderError(recordID string, cause error) *RecorderError {
	return &RecorderError{RecordID: recordID, Cause: cause}
}

func (e *RecorderError) Error() string {
	if e.RecordID == "" {
		return "audit record dropped: " + e.Cause.Error()
	}
	return fmt.Sprintf("audit record %s dropped: %v", e.RecordID, e.Cause)
}

func (e *RecorderError) Unwrap() error { return e.Cause }

// RetentionError reports a failed pruning pass.
type RetentionError struct {
	RetentionDays int
	Cause         error
}

func NewRetentionError(retentionDays int, cause error) *RetentionError {
	return &RetentionError{RetentionDays: retentionDays, Cause: cause}
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("audit pruning (%d day retention) failed: %v", e.RetentionDays, e.Cause)
}

func (e *RetentionError) Unwrap() error { return e.Cause }

// ExportError reports a failed export.
type ExportError struct {
	Format      string
	RecordCount int
	Cause       error
}

func NewExportError(format string, recordCount int, cause error) *ExportError {
	return &ExportError{Format: format, RecordCount: recordCount, Cause: cause}
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting %d audit records as %s failed: %v", e.RecordCount, e.Format, e.Cause)
}

func (e *ExportError) Unwrap() error { return e.Cause }
