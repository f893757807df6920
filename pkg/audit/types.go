package audit

import (
	"context"
	"io"
	"time"
)

// Record is the audit trail of one rule outcome within an evaluation.
type Record struct {
	// Identity
	ID           string `json:"id"`            // UUID v4
	EvaluationID string `json:"evaluation_id"` // Shared by all rules of one evaluation

	// Rule
	Ruleset string `json:"ruleset"`
	Version string `json:"version,omitempty"` // Ruleset version or commit
	RuleID  string `json:"rule_id"`

	// Outcome
	Success bool   `json:"success"`
	Kind    string `json:"kind"`              // Failure kind, "none" on success
	Message string `json:"message,omitempty"` // Failure message

	// Consequences maps consequence IDs to their rendered detail.
	Consequences map[string]string `json:"consequences,omitempty"`

	// InputHash is the SHA-256 of the input document, if one was supplied.
	InputHash string `json:"input_hash,omitempty"`

	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Query defines filter parameters for querying audit records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	IDs          []string `json:"ids,omitempty"` // Match any of these record IDs
	EvaluationID string   `json:"evaluation_id,omitempty"`
	Ruleset      string   `json:"ruleset,omitempty"`
	RuleID       string   `json:"rule_id,omitempty"`
	Kind         string   `json:"kind,omitempty"`
	Success      *bool    `json:"success,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "timestamp", "rule_id", "duration"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for audit storage backends.
// Implementations must be thread-safe and support concurrent access.
type Storage interface {
	// Store persists an audit record.
	Store(ctx context.Context, record *Record) error

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Query retrieves audit records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of audit records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes audit records matching the query filters and returns
	// the number of records deleted.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter writes audit records in some format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
