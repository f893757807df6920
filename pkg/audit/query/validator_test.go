package query

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mercator-hq/rulekit/pkg/audit"
)

func TestValidate(t *testing.T) {
	early := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(24 * time.Hour)

	tests := []struct {
		name    string
		query   audit.Query
		wantErr string
	}{
		{name: "empty", query: audit.Query{}},
		{name: "full", query: audit.Query{
			StartTime: &early, EndTime: &late, Limit: MaxLimit,
			SortBy: "rule_id", SortOrder: "asc", Kind: "missing_operand",
		}},
		{name: "negative limit", query: audit.Query{Limit: -1}, wantErr: "limit -1 is negative"},
		{name: "limit too large", query: audit.Query{Limit: MaxLimit + 1}, wantErr: "exceeds"},
		{name: "negative offset", query: audit.Query{Offset: -5}, wantErr: "offset -5"},
		{name: "sort field", query: audit.Query{SortBy: "message"}, wantErr: `cannot sort by "message"`},
		{name: "sort order", query: audit.Query{SortOrder: "up"}, wantErr: `"up"`},
		{name: "reversed range", query: audit.Query{StartTime: &late, EndTime: &early}, wantErr: "after end time"},
		{name: "kind", query: audit.Query{Kind: "exploded"}, wantErr: `unknown failure kind "exploded"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.query)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var qerr *audit.QueryError
			if assert.True(t, errors.As(err, &qerr), "got %T", err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	q := &audit.Query{}
	ApplyDefaults(q)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, "timestamp", q.SortBy)
	assert.Equal(t, "desc", q.SortOrder)

	q = &audit.Query{Limit: 5, SortBy: "duration", SortOrder: "asc"}
	ApplyDefaults(q)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, "duration", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)
}
