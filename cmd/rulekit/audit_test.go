package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/rulekit/pkg/audit"
	"mercator-hq/rulekit/pkg/audit/storage"
	"mercator-hq/rulekit/pkg/cli"
	"mercator-hq/rulekit/pkg/config"
)

// evaluateWithAudit runs eval against the sqlite config so the audit store
// holds one record per rule.
func evaluateWithAudit(t *testing.T) {
	t.Helper()
	resetGlobals(t)
	writeSQLiteConfig(t)
	evalFlags.context = "testdata/ctx.json"

	cmd, _, _ := newTestCommand()
	require.NoError(t, evalRules(cmd, nil))
}

func TestListAudit_JSON(t *testing.T) {
	evaluateWithAudit(t)
	auditFlags.format = "json"

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, listAudit(cmd, nil))

	var records []audit.Record
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &records))
	require.Len(t, records, 3)

	byRule := map[string]audit.Record{}
	for _, r := range records {
		byRule[r.RuleID] = r
		assert.Equal(t, "launch", r.Ruleset)
		assert.Equal(t, records[0].EvaluationID, r.EvaluationID)
		assert.NotEmpty(t, r.InputHash)
	}
	assert.True(t, byRule["android-user"].Success)
	assert.Equal(t, "https://example.com/jane+doe", byRule["android-user"].Consequences["notify"])
	assert.False(t, byRule["beta"].Success)
	assert.Equal(t, "condition_failed", byRule["beta"].Kind)
}

func TestListAudit_Filters(t *testing.T) {
	evaluateWithAudit(t)
	auditFlags.rule = "beta"
	auditFlags.format = "csv"

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, listAudit(cmd, nil))

	rows, err := csv.NewReader(stdout).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	auditFlags.rule = ""
	auditFlags.success = true
	cmd, stdout, _ = newTestCommand()
	cmd.Flags().BoolVar(&auditFlags.success, "success", false, "")
	require.NoError(t, cmd.Flags().Set("success", "true"))
	require.NoError(t, listAudit(cmd, nil))

	rows, err = csv.NewReader(stdout).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus the two matched rules")
}

func TestListAudit_TextToFile(t *testing.T) {
	evaluateWithAudit(t)
	auditFlags.rule = "android-user"
	auditFlags.output = filepath.Join(t.TempDir(), "audit.txt")

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, listAudit(cmd, nil))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(auditFlags.output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total records: 1")
	assert.Contains(t, string(data), "Rule: android-user")
	assert.Contains(t, string(data), "Outcome: matched")
	assert.Contains(t, string(data), "Consequence notify: https://example.com/jane+doe")
}

func TestBuildAuditQuery(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		resetGlobals(t)
		q, err := buildAuditQuery(&cobra.Command{}, now)
		require.NoError(t, err)
		assert.Equal(t, 100, q.Limit)
		assert.Equal(t, "timestamp", q.SortBy)
		assert.Equal(t, "desc", q.SortOrder)
		assert.Nil(t, q.Success)
		assert.Nil(t, q.StartTime)
	})

	t.Run("since", func(t *testing.T) {
		resetGlobals(t)
		auditFlags.since = 2 * time.Hour
		q, err := buildAuditQuery(&cobra.Command{}, now)
		require.NoError(t, err)
		require.NotNil(t, q.StartTime)
		assert.Equal(t, now.Add(-2*time.Hour), *q.StartTime)
	})

	t.Run("time range", func(t *testing.T) {
		resetGlobals(t)
		auditFlags.timeRange = "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"
		q, err := buildAuditQuery(&cobra.Command{}, now)
		require.NoError(t, err)
		assert.Equal(t, 1, q.StartTime.Day())
		assert.Equal(t, 2, q.EndTime.Day())
	})

	tests := []struct {
		name  string
		setup func()
	}{
		{"range and since", func() {
			auditFlags.timeRange = "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"
			auditFlags.since = time.Hour
		}},
		{"malformed range", func() { auditFlags.timeRange = "yesterday" }},
		{"bad start", func() { auditFlags.timeRange = "x/2026-10-02T00:00:00Z" }},
		{"reversed range", func() { auditFlags.timeRange = "2026-10-02T00:00:00Z/2026-10-01T00:00:00Z" }},
		{"negative offset", func() { auditFlags.offset = -1 }},
		{"unknown kind", func() { auditFlags.kind = "exploded" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			tt.setup()
			_, err := buildAuditQuery(&cobra.Command{}, now)
			require.Error(t, err)
			assert.Equal(t, cli.ExitConfigError, cli.ExitCode(err))
		})
	}
}

func TestPruneAudit(t *testing.T) {
	evaluateWithAudit(t)

	cmd, stdout, _ := newTestCommand()
	cmd.Flags().Int64Var(&auditFlags.maxRecords, "max-records", 0, "")
	require.NoError(t, cmd.Flags().Set("max-records", "1"))

	auditFlags.dryRun = true
	require.NoError(t, pruneAudit(cmd, nil))
	assert.Equal(t, "Would prune 2 records\n", stdout.String())

	stdout.Reset()
	auditFlags.dryRun = false
	require.NoError(t, pruneAudit(cmd, nil))
	assert.Equal(t, "Pruned 2 records\n", stdout.String())

	stdout.Reset()
	require.NoError(t, pruneAudit(cmd, nil))
	assert.Equal(t, "Pruned 0 records\n", stdout.String())
}

func TestCountPrunable(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStorage()
	defer store.Close()

	for i, age := range []int{0, 1, 10, 40, 50} {
		require.NoError(t, store.Store(ctx, &audit.Record{
			ID:        string(rune('a' + i)),
			RuleID:    "r",
			Timestamp: now.AddDate(0, 0, -age),
		}))
	}

	tests := []struct {
		name string
		cfg  config.AuditConfig
		want int64
	}{
		{"nothing configured", config.AuditConfig{}, 0},
		{"age only", config.AuditConfig{RetentionDays: 30}, 2},
		{"count only", config.AuditConfig{MaxRecords: 2}, 3},
		{"age then count", config.AuditConfig{RetentionDays: 30, MaxRecords: 2}, 3},
		{"count below remaining", config.AuditConfig{RetentionDays: 5, MaxRecords: 10}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := countPrunable(ctx, store, &tt.cfg, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
