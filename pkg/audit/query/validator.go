package query

import (
	"errors"
	"fmt"
	"slices"

	"mercator-hq/rulekit/pkg/audit"
	"mercator-hq/rulekit/pkg/rules/condition"
)

// Page size bounds.
const (
	DefaultLimit = 100
	MaxLimit     = 10000
)

// SortFields are the accepted values of Query.SortBy.
var SortFields = []string{"timestamp", "rule_id", "duration"}

// Validate rejects a query a storage backend could not run as asked.
// The returned error is an *audit.QueryError.
func Validate(q *audit.Query) error {
	if err := check(q); err != nil {
		return audit.NewQueryError(q, err)
	}
	return nil
}

func check(q *audit.Query) error {
	switch {
	case q.Limit < 0:
		return fmt.Errorf("limit %d is negative", q.Limit)
	case q.Limit > MaxLimit:
		return fmt.Errorf("limit %d exceeds %d", q.Limit, MaxLimit)
	case q.Offset < 0:
		return fmt.Errorf("offset %d is negative", q.Offset)
	case q.SortBy != "" && !slices.Contains(SortFields, q.SortBy):
		return fmt.Errorf("cannot sort by %q", q.SortBy)
	case q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc":
		return fmt.Errorf("sort order %q is not asc or desc", q.SortOrder)
	case q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime):
		return errors.New("start time is after end time")
	}

	if q.Kind != "" {
		var kind condition.FailureKind
		if err := kind.UnmarshalText([]byte(q.Kind)); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults fills in the page size and newest-first ordering.
func ApplyDefaults(q *audit.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "timestamp"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
