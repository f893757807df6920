package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mercator-hq/rulekit/pkg/audit"
	"mercator-hq/rulekit/pkg/audit/export"
	"mercator-hq/rulekit/pkg/config"
	"mercator-hq/rulekit/pkg/telemetry/metrics"
)

// Config controls what Prune deletes.
type Config struct {
	// RetentionDays is the record age limit. Zero disables age pruning.
	RetentionDays int

	// MaxRecords caps the store size; the oldest records beyond it are
	// pruned. Zero disables count pruning.
	MaxRecords int64

	// PruneSchedule is the cron expression used by Start.
	PruneSchedule string

	// ArchiveBeforeDelete dumps records as JSON into ArchivePath before
	// they are deleted.
	ArchiveBeforeDelete bool
	ArchivePath         string
}

// DefaultConfig keeps records for the default number of days and prunes
// nightly.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: config.DefaultAuditRetentionDays,
		PruneSchedule: config.DefaultAuditPruneSchedule,
		ArchivePath:   filepath.Join("data", "archives"),
	}
}

// FromConfig maps the audit section of the configuration file.
func FromConfig(cfg *config.AuditConfig) *Config {
	c := DefaultConfig()
	c.RetentionDays, c.MaxRecords, c.PruneSchedule = cfg.RetentionDays, cfg.MaxRecords, cfg.PruneSchedule
	return c
}

// Pruner deletes audit records by age and by count.
type Pruner struct {
	storage   audit.Storage
	config    *Config
	logger    *slog.Logger
	metrics   *metrics.Collector
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner returns a Pruner over s. A nil cfg means DefaultConfig; logger
// and collector may be nil.
func NewPruner(s audit.Storage, cfg *Config, logger *slog.Logger, collector *metrics.Collector) *Pruner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pruner{
		storage: s,
		config:  cfg,
		logger:  logger.With("component", "audit.retention"),
		metrics: collector,
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune applies the age limit and then the count limit, returning how many
// records were removed in total.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if days := p.config.RetentionDays; days > 0 {
		n, err := p.expire(ctx, p.now().AddDate(0, 0, -days))
		if err != nil {
			return total, audit.NewRetentionError(days, err)
		}
		total += n
	}

	if p.config.MaxRecords > 0 {
		n, err := p.trim(ctx, p.config.MaxRecords)
		if err != nil {
			return total, fmt.Errorf("enforce max records: %w", err)
		}
		total += n
	}

	p.metrics.RecordAuditPruned(total)
	level := slog.LevelDebug
	if total > 0 {
		level = slog.LevelInfo
	}
	p.logger.Log(ctx, level, "audit prune finished",
		"deleted", total,
		"retention_days", p.config.RetentionDays,
		"max_records", p.config.MaxRecords,
	)
	return total, nil
}

// expire removes everything recorded before cutoff.
func (p *Pruner) expire(ctx context.Context, cutoff time.Time) (int64, error) {
	q := &audit.Query{EndTime: &cutoff}
	if p.config.ArchiveBeforeDelete {
		records, err := p.storage.Query(ctx, q)
		if err != nil {
			return 0, err
		}
		if err := p.archive(ctx, "age", records); err != nil {
			return 0, err
		}
	}
	return p.storage.Delete(ctx, q)
}

// trim removes the oldest records until at most limit remain.
func (p *Pruner) trim(ctx context.Context, limit int64) (int64, error) {
	count, err := p.storage.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, err
	}
	excess := count - limit
	if excess <= 0 {
		return 0, nil
	}

	oldest, err := p.storage.Query(ctx, &audit.Query{SortBy: "timestamp", SortOrder: "asc", Limit: int(excess)})
	if err != nil || len(oldest) == 0 {
		return 0, err
	}
	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, "count", oldest); err != nil {
			return 0, err
		}
	}

	ids := make([]string, 0, len(oldest))
	for _, r := range oldest {
		ids = append(ids, r.ID)
	}
	n, err := p.storage.Delete(ctx, &audit.Query{IDs: ids})
	if err != nil {
		return 0, err
	}
	p.logger.Info("audit store over limit, oldest records removed",
		"count", count, "max_records", limit, "deleted", n)
	return n, nil
}

// archive writes records to <ArchivePath>/audit-<reason>-<timestamp>.json.
func (p *Pruner) archive(ctx context.Context, reason string, records []*audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	name := filepath.Join(p.config.ArchivePath,
		"audit-"+reason+"-"+p.now().Format("20060102T150405")+".json")
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if err := export.NewJSONExporter(true).Export(ctx, records, f); err != nil {
		f.Close()
		return fmt.Errorf("archive %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	p.logger.Info("audit records archived", "file", name, "records", len(records))
	return nil
}

// Start begins scheduled pruning; see Scheduler.Start.
func (p *Pruner) Start(ctx context.Context) error { return p.scheduler.Start(ctx) }

// Stop ends scheduled pruning.
func (p *Pruner) Stop() { p.scheduler.Stop() }

// NextPruning is the next scheduled prune, or nil when none is scheduled.
func (p *Pruner) NextPruning() *time.Time { return p.scheduler.NextRun() }
