package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a problem with one configuration field.
type FieldError struct {
	// Field is the dotted YAML path, e.g. "rules.file_path".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError collects every FieldError found by Validate.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "configuration validation failed"
	case 1:
		return "configuration validation failed: " + e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, fe := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", fe.Error())
	}
	return sb.String()
}

// problems accumulates field errors while walking a Config.
type problems []FieldError

func (p *problems) addf(field, format string, args ...any) {
	*p = append(*p, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// oneOf records an error unless value is one of allowed.
func (p *problems) oneOf(field, what, value string, allowed ...string) {
	if slices.Contains(allowed, value) {
		return
	}
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = "'" + a + "'"
	}
	p.addf(field, "invalid %s %q: must be one of %s", what, value, strings.Join(quoted, ", "))
}

// Validate checks cfg and reports every problem at once as a
// ValidationError. Defaults should already be applied.
func Validate(cfg *Config) error {
	var p problems
	p.rules(&cfg.Rules)
	p.audit(&cfg.Audit)
	p.telemetry(&cfg.Telemetry)
	if len(p) == 0 {
		return nil
	}
	return ValidationError{Errors: p}
}

func (p *problems) rules(r *RulesConfig) {
	if r.Source == "" {
		p.addf("rules.source", "source is required")
	} else {
		p.oneOf("rules.source", "source", r.Source, "file", "git")
	}
	if r.Source == "file" && r.FilePath == "" {
		p.addf("rules.file_path", "file path is required when source is 'file'")
	}
	if r.Debounce < 0 {
		p.addf("rules.debounce", "debounce must not be negative")
	}
	if r.Delimiters.Start == "" || r.Delimiters.End == "" {
		p.addf("rules.delimiters", "start and end delimiters are required")
	}
	if r.Source == "git" {
		p.git(&r.Git)
	}
}

func (p *problems) git(g *GitConfig) {
	switch {
	case g.Repository == "":
		p.addf("rules.git.repository", "repository is required when source is 'git'")
	case strings.HasPrefix(g.Repository, "git@"):
		// scp-like ssh address
	default:
		if u, err := url.Parse(g.Repository); err != nil || u.Scheme == "" {
			p.addf("rules.git.repository", "invalid repository URL %q", g.Repository)
		}
	}
	if g.Branch == "" {
		p.addf("rules.git.branch", "branch is required when source is 'git'")
	}
	if g.Path == "" {
		p.addf("rules.git.path", "path is required when source is 'git'")
	}
	if g.Token != "" && g.Username == "" {
		p.addf("rules.git.username", "username is required when a token is set")
	}
	if g.PollInterval <= 0 {
		p.addf("rules.git.poll_interval", "poll interval must be positive")
	}
}

func (p *problems) audit(a *AuditConfig) {
	if !a.Enabled {
		return
	}
	p.oneOf("audit.backend", "backend", a.Backend, "memory", "sqlite")
	if a.Backend == "sqlite" {
		p.oneOf("audit.sqlite.driver", "driver", a.SQLite.Driver, "sqlite", "sqlite3")
		if a.SQLite.Path == "" {
			p.addf("audit.sqlite.path", "path is required when backend is 'sqlite'")
		}
	}
	if a.RetentionDays < 0 {
		p.addf("audit.retention_days", "retention days must not be negative")
	}
	if a.MaxRecords < 0 {
		p.addf("audit.max_records", "max records must not be negative")
	}
	if a.PruneSchedule != "" {
		if _, err := cron.ParseStandard(a.PruneSchedule); err != nil {
			p.addf("audit.prune_schedule", "invalid cron expression %q: %v", a.PruneSchedule, err)
		}
	}
}

func (p *problems) telemetry(t *TelemetryConfig) {
	p.oneOf("telemetry.logging.level", "logging level", strings.ToLower(t.Logging.Level), "debug", "info", "warn", "error")
	p.oneOf("telemetry.logging.format", "logging format", strings.ToLower(t.Logging.Format), "json", "text", "console")

	if t.Metrics.Enabled && !strings.HasPrefix(t.Metrics.Path, "/") {
		p.addf("telemetry.metrics.path", "metrics path must start with /")
	}

	if t.Tracing.Enabled && t.Tracing.Endpoint == "" {
		p.addf("telemetry.tracing.endpoint", "endpoint is required when tracing is enabled")
	}
	p.oneOf("telemetry.tracing.sampler", "sampler", t.Tracing.Sampler, "always", "never", "ratio")
	if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
		p.addf("telemetry.tracing.sample_ratio", "sample ratio must be between 0.0 and 1.0")
	}
}
