package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "RULEKIT_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RULEKIT_SECTION_FIELD (e.g., RULEKIT_RULES_FILE_PATH).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from NewDefaultConfig.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// parse decodes YAML into a Config and applies defaults. Metrics start
// enabled so that an explicit "enabled: false" is the only way to turn them off.
func parse(data []byte) (*Config, error) {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean and duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Rules overrides
	setString("RULES_SOURCE", &cfg.Rules.Source)
	setString("RULES_FILE_PATH", &cfg.Rules.FilePath)
	setBool("RULES_WATCH", &cfg.Rules.Watch)
	setDuration("RULES_DEBOUNCE", &cfg.Rules.Debounce)
	setBool("RULES_CASE_INSENSITIVE", &cfg.Rules.CaseInsensitive)
	setString("RULES_DELIMITERS_START", &cfg.Rules.Delimiters.Start)
	setString("RULES_DELIMITERS_END", &cfg.Rules.Delimiters.End)
	if val := os.Getenv(EnvPrefix + "RULES_TRANSFORMS"); val != "" {
		cfg.Rules.Transforms = splitList(val)
	}
	setString("RULES_GIT_REPOSITORY", &cfg.Rules.Git.Repository)
	setString("RULES_GIT_BRANCH", &cfg.Rules.Git.Branch)
	setString("RULES_GIT_PATH", &cfg.Rules.Git.Path)
	setString("RULES_GIT_LOCAL_PATH", &cfg.Rules.Git.LocalPath)
	setString("RULES_GIT_USERNAME", &cfg.Rules.Git.Username)
	setString("RULES_GIT_TOKEN", &cfg.Rules.Git.Token)
	setDuration("RULES_GIT_POLL_INTERVAL", &cfg.Rules.Git.PollInterval)
	setDuration("RULES_GIT_TIMEOUT", &cfg.Rules.Git.Timeout)

	// Audit overrides
	setBool("AUDIT_ENABLED", &cfg.Audit.Enabled)
	setString("AUDIT_BACKEND", &cfg.Audit.Backend)
	setString("AUDIT_SQLITE_DRIVER", &cfg.Audit.SQLite.Driver)
	setString("AUDIT_SQLITE_PATH", &cfg.Audit.SQLite.Path)
	setDuration("AUDIT_SQLITE_BUSY_TIMEOUT", &cfg.Audit.SQLite.BusyTimeout)
	if val := os.Getenv(EnvPrefix + "AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.RetentionDays = i
		}
	}
	if val := os.Getenv(EnvPrefix + "AUDIT_MAX_RECORDS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Audit.MaxRecords = i
		}
	}
	setString("AUDIT_PRUNE_SCHEDULE", &cfg.Audit.PruneSchedule)

	// Telemetry overrides
	setString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	setBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	setString("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	setString("TELEMETRY_METRICS_SUBSYSTEM", &cfg.Telemetry.Metrics.Subsystem)
	setString("TELEMETRY_METRICS_LISTEN_ADDRESS", &cfg.Telemetry.Metrics.ListenAddress)
	setString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	setBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	setString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	setString("TELEMETRY_TRACING_SERVICE_NAME", &cfg.Telemetry.Tracing.ServiceName)
	setString("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
	setBool("TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	setDuration("TELEMETRY_TRACING_TIMEOUT", &cfg.Telemetry.Tracing.Timeout)
}

func setString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func setBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
