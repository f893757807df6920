package config

import "time"

// Config is the root configuration structure for rulekit.
// It contains the rule source, audit storage and telemetry sections.
type Config struct {
	// Rules contains configuration for where rule documents come from and
	// how they are evaluated.
	Rules RulesConfig `yaml:"rules"`

	// Audit contains configuration for recording rule evaluation outcomes
	// including backend selection and retention.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig contains configuration for rule loading and evaluation.
type RulesConfig struct {
	// Source specifies how rule documents are loaded.
	// Options: "file" (local file or directory), "git" (Git repository)
	// Default: "file"
	Source string `yaml:"source"`

	// FilePath is the rule document or directory of documents when Source
	// is "file".
	// Default: "./rules.yaml"
	FilePath string `yaml:"file_path"`

	// Watch enables automatic reloading when rule files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period after a file change before reloading.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`

	// CaseInsensitive makes text comparisons case-insensitive for documents
	// that do not set case_sensitivity themselves.
	// Default: false
	CaseInsensitive bool `yaml:"case_insensitive"`

	// Delimiters are the placeholder markers for documents that do not set
	// their own.
	// Default: "{{" and "}}"
	Delimiters DelimitersConfig `yaml:"delimiters"`

	// Transforms lists the built-in transform functions to register.
	// Empty registers all of them.
	Transforms []string `yaml:"transforms"`

	// Git contains configuration for the "git" source.
	Git GitConfig `yaml:"git"`
}

// DelimitersConfig contains placeholder start and end markers.
type DelimitersConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// GitConfig contains configuration for loading rules from a Git repository.
type GitConfig struct {
	// Repository is the clone URL.
	Repository string `yaml:"repository"`

	// Branch is the branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path is the rule document or directory inside the repository.
	// Default: "rules.yaml"
	Path string `yaml:"path"`

	// LocalPath is where the repository is cloned.
	// Default: "<tmp>/rulekit-rules"
	LocalPath string `yaml:"local_path"`

	// Username and Token are HTTP basic credentials. Token should usually be
	// supplied with RULEKIT_RULES_GIT_TOKEN.
	Username string `yaml:"username"`
	Token    string `yaml:"token"`

	// PollInterval is how often the repository is pulled when watching.
	// Default: 30s
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds a single clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// AuditConfig contains configuration for evaluation audit records.
type AuditConfig struct {
	// Enabled controls whether evaluation outcomes are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// RetentionDays is how long records are kept. Zero keeps them forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps the number of stored records. Zero means no cap.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for automatic pruning. Empty
	// disables the scheduler.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// SQLiteConfig contains configuration for the SQLite audit backend.
type SQLiteConfig struct {
	// Driver selects the database/sql driver.
	// Options: "sqlite3" (cgo, mattn/go-sqlite3), "sqlite" (pure Go, modernc.org/sqlite)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace and Subsystem prefix every metric name.
	// Default: "rulekit", "rules"
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is where the metrics endpoint is served by long-running
	// commands. Empty disables the endpoint.
	// Default: ""
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "rulekit"
	ServiceName string `yaml:"service_name"`

	// Sampler selects the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds an export call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
