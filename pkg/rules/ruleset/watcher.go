package ruleset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcherConfig contains configuration for the file watcher.
type FileWatcherConfig struct {
	// Path is the rule file or directory to watch.
	Path string

	// DebounceInterval is the quiet period after the last change before a
	// reload runs.
	// Default: 100ms
	DebounceInterval time.Duration

	// Extensions are the file extensions that trigger reloads.
	Extensions []string

	// SkipHidden ignores files and directories whose name starts with a dot.
	SkipHidden bool
}

// DefaultFileWatcherConfig returns the default watcher configuration.
func DefaultFileWatcherConfig() *FileWatcherConfig {
	return &FileWatcherConfig{
		DebounceInterval: 100 * time.Millisecond,
		Extensions:       []string{".yaml", ".yml"},
		SkipHidden:       true,
	}
}

// FileWatcher reloads rules when files under a path change. Bursts of
// events are collapsed into one reload by a Debouncer.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	config   *FileWatcherConfig
	debounce *Debouncer

	// file is set when Path names a single file. Its parent directory is
	// watched instead so that editors replacing the file are still seen.
	file string

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewFileWatcher creates a file watcher.
func NewFileWatcher(cfg *FileWatcherConfig, logger *slog.Logger) (*FileWatcher, error) {
	if cfg == nil {
		cfg = DefaultFileWatcherConfig()
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = DefaultFileWatcherConfig().DebounceInterval
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultFileWatcherConfig().Extensions
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		logger:   logger.With("component", "ruleset.watcher"),
		config:   cfg,
		debounce: NewDebouncer(cfg.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is done or Stop is called, running onReload after
// each debounced burst of changes. Reload errors are logged and watching
// continues.
func (fw *FileWatcher) Watch(ctx context.Context, onReload func(context.Context) error) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	fw.running = true
	fw.mu.Unlock()

	defer close(fw.doneCh)

	if err := fw.addPath(fw.config.Path); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	fw.logger.Info("file watcher started",
		"path", fw.config.Path,
		"debounce_ms", fw.config.DebounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("file watcher stopped", "reason", "context done")
			return nil

		case <-fw.stopCh:
			fw.logger.Info("file watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			fw.handle(ctx, event, onReload)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

// handle schedules a reload for a relevant event. New directories under a
// watched tree are added to the watch set first.
func (fw *FileWatcher) handle(ctx context.Context, event fsnotify.Event, onReload func(context.Context) error) {
	if !fw.shouldProcess(event) {
		return
	}
	fw.logger.Debug("file event", "path", event.Name, "op", event.Op.String())

	if fw.file == "" && event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := fw.addDirectory(event.Name); err != nil {
			fw.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
		}
	}

	fw.debounce.Trigger(func() {
		fw.logger.Info("reloading rules", "path", event.Name, "op", event.Op.String())
		if err := onReload(ctx); err != nil {
			fw.logger.Error("rules reload failed", "error", err)
		}
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Stop stops watching and releases the fsnotify watcher. It is safe to call
// more than once and before Watch.
func (fw *FileWatcher) Stop() error {
	fw.stopOnce.Do(func() { close(fw.stopCh) })

	fw.mu.Lock()
	running := fw.running
	fw.mu.Unlock()
	if running {
		<-fw.doneCh
	}

	fw.debounce.Stop()
	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (fw *FileWatcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fw.addDirectory(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	fw.file = abs
	return fw.watcher.Add(filepath.Dir(abs))
}

func (fw *FileWatcher) addDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if fw.config.SkipHidden && path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		fw.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// shouldProcess filters out chmod events and files that are not rules.
func (fw *FileWatcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if fw.file != "" {
		abs, err := filepath.Abs(event.Name)
		return err == nil && abs == fw.file
	}

	if fw.config.SkipHidden && strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		return true
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, want := range fw.config.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// Debouncer runs the most recent callback once triggers stop arriving for
// the configured interval.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates a debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any callback still waiting.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		current := gen == d.gen && !d.stopped
		d.mu.Unlock()
		if current {
			callback()
		}
	})
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
