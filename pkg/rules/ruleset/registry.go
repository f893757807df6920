package ruleset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"mercator-hq/rulekit/pkg/config"
	"mercator-hq/rulekit/pkg/telemetry/metrics"
)

// Source produces rulesets.
type Source interface {
	// Name identifies the source kind in logs and metrics, e.g. "file".
	Name() string

	// Load reads the current rules.
	Load(ctx context.Context) (*Ruleset, error)
}

// Provider gives the engine the ruleset to evaluate.
type Provider interface {
	Current() *Ruleset
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() *Ruleset

// Current calls f.
func (f ProviderFunc) Current() *Ruleset { return f() }

// Fixed returns a Provider that always yields rs.
func Fixed(rs *Ruleset) Provider {
	return ProviderFunc(func() *Ruleset { return rs })
}

// FileSource loads rules from a file or directory on disk.
type FileSource struct {
	path   string
	loader *Loader
}

// NewFileSource creates a file source. A nil loader uses the defaults.
func NewFileSource(path string, loader *Loader) *FileSource {
	if loader == nil {
		loader = NewLoader(nil)
	}
	return &FileSource{path: path, loader: loader}
}

// Name returns "file".
func (s *FileSource) Name() string { return "file" }

// Path returns the file or directory being loaded.
func (s *FileSource) Path() string { return s.path }

// Load reads the rules from disk.
func (s *FileSource) Load(ctx context.Context) (*Ruleset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loader.Load(s.path)
}

// NewSource creates the source selected by the rules configuration.
func NewSource(cfg *config.RulesConfig, loader *Loader, logger *slog.Logger) (Source, error) {
	switch cfg.Source {
	case "", "file":
		return NewFileSource(cfg.FilePath, loader), nil
	case "git":
		return NewGitSource(&cfg.Git, loader, logger)
	default:
		return nil, fmt.Errorf("unknown rules source %q", cfg.Source)
	}
}

// Registry holds the active ruleset and replaces it atomically on reload.
// Readers never block; a failed reload keeps the previous ruleset.
type Registry struct {
	source  Source
	logger  *slog.Logger
	metrics *metrics.Collector

	current atomic.Pointer[Ruleset]

	mu        sync.Mutex // serialises reloads
	lastErr   error
	listeners []func(*Ruleset)
}

// NewRegistry creates an empty registry over source. Call Reload to load the
// first ruleset. The logger and collector may be nil.
func NewRegistry(source Source, logger *slog.Logger, collector *metrics.Collector) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		source:  source,
		logger:  logger.With("component", "ruleset.registry"),
		metrics: collector,
	}
}

// Current returns the active ruleset, or nil before the first successful load.
func (r *Registry) Current() *Ruleset {
	return r.current.Load()
}

// Source returns the source the registry loads from.
func (r *Registry) Source() Source {
	return r.source
}

// LastError returns the error of the most recent reload, or nil.
func (r *Registry) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// OnReload registers fn to run after every successful reload.
func (r *Registry) OnReload(fn func(*Ruleset)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Reload loads rules from the source and makes them active. On failure the
// active ruleset is unchanged and a *ReloadError is returned.
func (r *Registry) Reload(ctx context.Context) (*Ruleset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, err := r.source.Load(ctx)
	if err != nil {
		r.lastErr = &ReloadError{Source: r.source.Name(), Cause: err}
		r.metrics.RecordReload(r.source.Name(), 0, err)
		r.logger.ErrorContext(ctx, "rules reload failed, keeping previous ruleset",
			"source", r.source.Name(),
			"error", err,
		)
		return nil, r.lastErr
	}

	previous := r.current.Swap(rs)
	r.lastErr = nil
	r.metrics.RecordReload(r.source.Name(), len(rs.Rules), nil)

	attrs := []any{
		"source", r.source.Name(),
		"ruleset", rs.Name,
		"rules", len(rs.Rules),
		"warnings", len(rs.Warnings),
	}
	if rs.Revision != "" {
		attrs = append(attrs, "revision", rs.Revision)
	}
	if previous != nil {
		attrs = append(attrs, "previous_rules", len(previous.Rules))
	}
	r.logger.InfoContext(ctx, "rules loaded", attrs...)
	for _, w := range rs.Warnings {
		r.logger.WarnContext(ctx, "rule warning", "warning", w.String())
	}

	for _, fn := range r.listeners {
		fn(rs)
	}
	return rs, nil
}
