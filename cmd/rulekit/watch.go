package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/rulekit/pkg/audit/retention"
	"mercator-hq/rulekit/pkg/cli"
	"mercator-hq/rulekit/pkg/config"
	"mercator-hq/rulekit/pkg/rules/ruleset"
	"mercator-hq/rulekit/pkg/server"
	"mercator-hq/rulekit/pkg/telemetry/health"
	"mercator-hq/rulekit/pkg/telemetry/metrics"
)

var watchFlags struct {
	rules    string
	context  string
	format   string
	listen   string
	noReload bool
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep rules loaded and re-evaluate on every change",
	Long: `Load the configured rule source, evaluate the given contexts, and
re-evaluate them each time the rules change.

File sources are watched with fsnotify; Git sources are polled on
rules.git.poll_interval. A reload that fails keeps the previous rules.

When a listen address is set (--listen or telemetry.metrics.listen_address)
the command also serves:
  /metrics   Prometheus metrics
  /health    liveness
  /ready     readiness (fails until rules are loaded)
  /version   build information

Examples:
  # Watch the configured rules
  rulekit watch --config rulekit.yaml

  # Watch a directory and re-evaluate a batch of contexts
  rulekit watch --rules rules/ --context contexts.jsonl

  # Serve metrics and health endpoints
  rulekit watch --listen :9090`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.rules, "rules", "r", "", "rule file or directory (overrides the configured source)")
	watchCmd.Flags().StringVar(&watchFlags.context, "context", "", "context document to evaluate on each reload (- for stdin)")
	watchCmd.Flags().StringVar(&watchFlags.format, "format", "text", "output format: text, json")
	watchCmd.Flags().StringVarP(&watchFlags.listen, "listen", "l", "", "override metrics and health listen address")
	watchCmd.Flags().BoolVar(&watchFlags.noReload, "no-reload", false, "load once and serve without watching for changes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(watchFlags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchFlags.rules != "" {
		cfg.Rules.Source = "file"
		cfg.Rules.FilePath = watchFlags.rules
	}
	if watchFlags.listen != "" {
		cfg.Telemetry.Metrics.ListenAddress = watchFlags.listen
	}
	cfg.Rules.Watch = !watchFlags.noReload

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	transformer, err := newTransformer(cfg)
	if err != nil {
		return err
	}
	inputs, err := readContexts(cmd, watchFlags.context)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	tracer, shutdownTracer, err := newTracer(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTracer()

	sink, err := openAudit(cfg, cfg.Audit.Enabled, logger, collector)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error("failed to close audit storage", "error", err)
		}
	}()

	if sink != nil {
		pruner := retention.NewPruner(sink.storage, retention.FromConfig(&cfg.Audit), logger, collector)
		if err := pruner.Start(ctx); err != nil {
			return cli.NewConfigError("audit.prune_schedule", err.Error())
		}
		defer pruner.Stop()
		if next := pruner.NextPruning(); next != nil {
			logger.Info("audit pruning scheduled", "next", next.Format(time.RFC3339))
		}
	}

	source, err := ruleset.NewSource(&cfg.Rules, newLoader(cfg), logger)
	if err != nil {
		return cli.NewConfigError("rules.source", err.Error())
	}
	registry := ruleset.NewRegistry(source, logger, collector)

	opts := []ruleset.EngineOption{
		ruleset.WithTransformer(transformer),
		ruleset.WithLogger(logger),
		ruleset.WithMetrics(collector),
		ruleset.WithTracer(tracer),
	}
	if sink != nil {
		opts = append(opts, ruleset.WithRecorder(sink.recorder))
	}
	engine := ruleset.NewEngine(registry, opts...)

	// Listeners run under the registry's reload lock, so reports never
	// interleave.
	out := cmd.OutOrStdout()
	registry.OnReload(func(rs *ruleset.Ruleset) {
		report, err := evaluateInputs(ctx, engine, inputs, nil, nil)
		if err != nil {
			logger.Error("evaluation failed", "ruleset", rs.Name, "error", err)
			return
		}
		if err := writeReport(out, format, report); err != nil {
			logger.Error("failed to write report", "error", err)
		}
	})

	if _, err := registry.Reload(ctx); err != nil {
		return cli.NewCommandError("watch", err)
	}

	// serverErr stays nil, and never selected, without a listen address.
	var serverErr chan error
	if addr := cfg.Telemetry.Metrics.ListenAddress; addr != "" {
		serverErr = make(chan error, 1)
		srv := server.New(server.Config{Address: addr}, newTelemetryHandler(cfg, registry, sink, collector), logger)
		go func() {
			serverErr <- srv.Start(ctx)
		}()
	}

	if cfg.Rules.Watch {
		if err := startReloading(ctx, cfg, source, registry, logger); err != nil {
			return cli.NewCommandError("watch", err)
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		if serverErr != nil {
			if err := <-serverErr; err != nil {
				logger.Warn("telemetry server shutdown failed", "error", err)
			}
		}
	case err := <-serverErr:
		if err != nil {
			return cli.NewCommandError("watch", fmt.Errorf("telemetry server failed: %w", err))
		}
	}
	return nil
}

// startReloading starts the change trigger for source in the background. It
// stops when ctx is done.
func startReloading(ctx context.Context, cfg *config.Config, source ruleset.Source, registry *ruleset.Registry, logger *slog.Logger) error {
	reload := func(ctx context.Context) error {
		_, err := registry.Reload(ctx)
		return err
	}

	switch src := source.(type) {
	case *ruleset.GitSource:
		go src.Poll(ctx, cfg.Rules.Git.PollInterval, reload)
		return nil
	case *ruleset.FileSource:
		wc := ruleset.DefaultFileWatcherConfig()
		wc.Path = src.Path()
		wc.DebounceInterval = cfg.Rules.Debounce
		fw, err := ruleset.NewFileWatcher(wc, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := fw.Watch(ctx, reload); err != nil {
				logger.Error("file watcher stopped", "path", wc.Path, "error", err)
			}
		}()
		return nil
	default:
		logger.Warn("rules source does not support reloading", "source", source.Name())
		return nil
	}
}

// newTelemetryHandler serves metrics and the health endpoints.
func newTelemetryHandler(cfg *config.Config, registry *ruleset.Registry, sink *auditSink, collector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()
	if collector != nil {
		mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
	}

	checker := health.New(5 * time.Second)
	checker.RegisterCheck("rules", health.RulesetCheck(registry))
	if sink != nil {
		checker.RegisterCheck("audit", health.StorageCheck(sink.storage))
	}
	health.Register(mux, checker, health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		GoVersion: runtime.Version(),
	})
	return mux
}
