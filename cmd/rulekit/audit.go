package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/rulekit/pkg/audit"
	"mercator-hq/rulekit/pkg/audit/export"
	"mercator-hq/rulekit/pkg/audit/query"
	"mercator-hq/rulekit/pkg/audit/retention"
	"mercator-hq/rulekit/pkg/audit/storage"
	"mercator-hq/rulekit/pkg/cli"
	"mercator-hq/rulekit/pkg/config"
)

var auditFlags struct {
	timeRange  string
	since      time.Duration
	ruleset    string
	rule       string
	evaluation string
	kind       string
	success    bool
	limit      int
	offset     int
	format     string
	output     string

	retentionDays int
	maxRecords    int64
	dryRun        bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query and maintain audit records",
	Long: `Query, export and prune the evaluation audit trail.

Audit records are written by "rulekit eval --audit" and "rulekit watch" when
audit.enabled is set. Use the sqlite backend to keep records between runs;
the memory backend only lives as long as one process.

Subcommands:
  list    - List audit records with filters
  prune   - Apply retention to stored records`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit records",
	Long: `List audit records matching the given filters, newest first.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"

Examples:
  # Records from the last hour
  rulekit audit list --since 1h

  # Failed outcomes of one rule
  rulekit audit list --rule free-trial --success=false

  # Export everything for one ruleset as CSV
  rulekit audit list --ruleset launch --limit 1000 --format csv --output audit.csv`,
	RunE: listAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit records outside the retention policy",
	Long: `Delete records older than the retention period and, when a record cap
is set, the oldest records over the cap.

Examples:
  # Apply the configured retention
  rulekit audit prune

  # Keep one week, show what would be deleted
  rulekit audit prune --retention-days 7 --dry-run`,
	RunE: pruneAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd, auditPruneCmd)

	f := auditListCmd.Flags()
	f.StringVar(&auditFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	f.DurationVar(&auditFlags.since, "since", 0, "only records newer than this duration (e.g. 24h)")
	f.StringVar(&auditFlags.ruleset, "ruleset", "", "filter by ruleset name")
	f.StringVar(&auditFlags.rule, "rule", "", "filter by rule ID")
	f.StringVar(&auditFlags.evaluation, "evaluation", "", "filter by evaluation ID")
	f.StringVar(&auditFlags.kind, "kind", "", "filter by failure kind (none, condition_failed, missing_operand, unknown_operator)")
	f.BoolVar(&auditFlags.success, "success", false, "filter by outcome")
	f.IntVar(&auditFlags.limit, "limit", 100, "max results")
	f.IntVar(&auditFlags.offset, "offset", 0, "pagination offset")
	f.StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")
	f.StringVarP(&auditFlags.output, "output", "o", "", "output file (default: stdout)")

	p := auditPruneCmd.Flags()
	p.IntVar(&auditFlags.retentionDays, "retention-days", 0, "override audit.retention_days")
	p.Int64Var(&auditFlags.maxRecords, "max-records", 0, "override audit.max_records")
	p.BoolVar(&auditFlags.dryRun, "dry-run", false, "report what would be deleted without deleting")
}

func listAudit(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(auditFlags.format)
	if err != nil {
		return err
	}

	q, err := buildAuditQuery(cmd, time.Now())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	store, err := storage.New(&cfg.Audit, logger)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("failed to open audit storage: %w", err))
	}
	defer store.Close()

	ctx := commandContext(cmd)
	records, err := store.Query(ctx, q)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}

	out := cmd.OutOrStdout()
	if auditFlags.output != "" {
		file, err := os.Create(auditFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	switch format {
	case cli.FormatJSON:
		return export.NewJSONExporter(true).Export(ctx, records, out)
	case cli.FormatCSV:
		return export.NewCSVExporter(true).Export(ctx, records, out)
	default:
		return writeAuditText(out, records, q)
	}
}

// buildAuditQuery turns the list flags into a validated query.
func buildAuditQuery(cmd *cobra.Command, now time.Time) (*audit.Query, error) {
	q := &audit.Query{
		Ruleset:      auditFlags.ruleset,
		RuleID:       auditFlags.rule,
		EvaluationID: auditFlags.evaluation,
		Kind:         auditFlags.kind,
		Limit:        auditFlags.limit,
		Offset:       auditFlags.offset,
	}

	if auditFlags.timeRange != "" && auditFlags.since > 0 {
		return nil, cli.NewConfigError("time-range", "--time-range and --since are mutually exclusive")
	}
	if auditFlags.timeRange != "" {
		start, end, err := parseTimeRange(auditFlags.timeRange)
		if err != nil {
			return nil, cli.NewConfigError("time-range", err.Error())
		}
		q.StartTime, q.EndTime = &start, &end
	}
	if auditFlags.since > 0 {
		start := now.Add(-auditFlags.since)
		q.StartTime = &start
	}
	if cmd.Flags().Changed("success") {
		success := auditFlags.success
		q.Success = &success
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return q, nil
}

func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

func writeAuditText(w io.Writer, records []*audit.Record, q *audit.Query) error {
	if q.StartTime != nil && q.EndTime != nil {
		fmt.Fprintf(w, "Time range: %s to %s\n", q.StartTime.Format(time.RFC3339), q.EndTime.Format(time.RFC3339))
	} else if q.StartTime != nil {
		fmt.Fprintf(w, "Since: %s\n", q.StartTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Total records: %d\n", len(records))

	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	for _, r := range records {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Record ID: %s\n", r.ID)
		fmt.Fprintf(w, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(w, "Evaluation: %s\n", r.EvaluationID)
		if r.Version != "" {
			fmt.Fprintf(w, "Ruleset: %s (%s)\n", r.Ruleset, r.Version)
		} else {
			fmt.Fprintf(w, "Ruleset: %s\n", r.Ruleset)
		}
		fmt.Fprintf(w, "Rule: %s\n", r.RuleID)
		if r.Success {
			fmt.Fprintln(w, "Outcome: matched")
		} else {
			fmt.Fprintf(w, "Outcome: %s: %s\n", r.Kind, r.Message)
		}
		for _, id := range sortedKeys(r.Consequences) {
			fmt.Fprintf(w, "Consequence %s: %s\n", id, r.Consequences[id])
		}
		fmt.Fprintf(w, "Duration: %s\n", r.Duration)
	}
	return nil
}

func pruneAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("retention-days") {
		cfg.Audit.RetentionDays = auditFlags.retentionDays
	}
	if cmd.Flags().Changed("max-records") {
		cfg.Audit.MaxRecords = auditFlags.maxRecords
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("audit", err.Error())
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	store, err := storage.New(&cfg.Audit, logger)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("failed to open audit storage: %w", err))
	}
	defer store.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if auditFlags.dryRun {
		n, err := countPrunable(ctx, store, &cfg.Audit, time.Now())
		if err != nil {
			return cli.NewCommandError("audit", err)
		}
		fmt.Fprintf(out, "Would prune %d records\n", n)
		return nil
	}

	pruner := retention.NewPruner(store, retention.FromConfig(&cfg.Audit), logger, nil)
	n, err := pruner.Prune(ctx)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	fmt.Fprintf(out, "Pruned %d records\n", n)
	return nil
}

// countPrunable reports how many records a prune at now would delete.
func countPrunable(ctx context.Context, store audit.Storage, cfg *config.AuditConfig, now time.Time) (int64, error) {
	var expired int64
	if cfg.RetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -cfg.RetentionDays)
		n, err := store.Count(ctx, &audit.Query{EndTime: &cutoff})
		if err != nil {
			return 0, fmt.Errorf("count failed: %w", err)
		}
		expired = n
	}

	if cfg.MaxRecords > 0 {
		total, err := store.Count(ctx, &audit.Query{})
		if err != nil {
			return 0, fmt.Errorf("count failed: %w", err)
		}
		if over := total - expired - cfg.MaxRecords; over > 0 {
			expired += over
		}
	}
	return expired, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
