package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/rulekit/pkg/audit"
	"mercator-hq/rulekit/pkg/telemetry/metrics"
)

// Config contains configuration for the audit recorder.
type Config struct {
	// Enabled enables recording. A disabled recorder accepts and drops outcomes.
	Enabled bool

	// AsyncBuffer is the size of the write queue.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds a single storage write and how long Record waits
	// for room in a full queue.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// MaxFieldLength truncates messages and rendered consequences.
	// Zero disables truncation.
	// Default: 500
	MaxFieldLength int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		AsyncBuffer:    1000,
		WriteTimeout:   5 * time.Second,
		MaxFieldLength: 500,
	}
}

// Outcome is one rule result as reported by the evaluation engine.
type Outcome struct {
	EvaluationID string
	Ruleset      string
	Version      string
	RuleID       string
	Success      bool
	Kind         string
	Message      string
	Consequences map[string]string
	Input        []byte
	Duration     time.Duration
	Timestamp    time.Time
}

// Recorder turns rule outcomes into audit records and writes them to storage
// from a background worker so evaluation never waits on the database.
type Recorder struct {
	storage audit.Storage
	config  *Config
	logger  *slog.Logger
	metrics *metrics.Collector

	recordChan chan *audit.Record
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewRecorder creates a recorder and starts its worker. The logger and
// collector may be nil.
func NewRecorder(storage audit.Storage, cfg *Config, logger *slog.Logger, collector *metrics.Collector) *Recorder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		config:     cfg,
		logger:     logger.With("component", "audit.recorder"),
		metrics:    collector,
		recordChan: make(chan *audit.Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("audit recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)
	return r
}

// Record queues an outcome for writing. It returns once the record is queued.
// A RecorderError is returned if the queue stays full for WriteTimeout or the
// recorder is closed.
func (r *Recorder) Record(ctx context.Context, outcome Outcome) error {
	if r == nil || !r.config.Enabled {
		return nil
	}

	record := r.newRecord(outcome)

	select {
	case <-r.done:
		return audit.NewRecorderError(record.ID, context.Canceled)
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
		return nil
	case <-timer.C:
		r.logger.ErrorContext(ctx, "audit queue full, dropping record",
			"record_id", record.ID,
			"rule_id", record.RuleID,
			"capacity", r.config.AsyncBuffer,
		)
		r.metrics.RecordAuditWrite(context.DeadlineExceeded)
		return audit.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		return audit.NewRecorderError(record.ID, context.Canceled)
	case <-ctx.Done():
		return audit.NewRecorderError(record.ID, ctx.Err())
	}
}

// Close stops accepting records, writes everything still queued and waits for
// the worker to exit. It is safe to call more than once.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.storage.Store(ctx, record)
	r.metrics.RecordAuditWrite(err)
	if err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"evaluation_id", record.EvaluationID,
			"rule_id", record.RuleID,
			"error", err,
		)
		return
	}

	if took := time.Since(start); took > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", took.Milliseconds(),
		)
	}
}

func (r *Recorder) newRecord(o Outcome) *audit.Record {
	ts := o.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	limit := r.config.MaxFieldLength
	var consequences map[string]string
	if len(o.Consequences) > 0 {
		consequences = make(map[string]string, len(o.Consequences))
		for id, detail := range o.Consequences {
			consequences[id] = truncate(detail, limit)
		}
	}

	return &audit.Record{
		ID:           uuid.New().String(),
		EvaluationID: o.EvaluationID,
		Ruleset:      o.Ruleset,
		Version:      o.Version,
		RuleID:       o.RuleID,
		Success:      o.Success,
		Kind:         o.Kind,
		Message:      truncate(o.Message, limit),
		Consequences: consequences,
		InputHash:    HashContent(o.Input),
		Duration:     o.Duration,
		Timestamp:    ts,
	}
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	return TruncateString(s, limit)
}
