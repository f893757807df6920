package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rulekit/pkg/audit"
	"mercator-hq/rulekit/pkg/audit/recorder"
	"mercator-hq/rulekit/pkg/audit/storage"
	"mercator-hq/rulekit/pkg/cli"
	"mercator-hq/rulekit/pkg/config"
	"mercator-hq/rulekit/pkg/rules/lookup"
	"mercator-hq/rulekit/pkg/rules/ruleset"
	"mercator-hq/rulekit/pkg/rules/template"
	"mercator-hq/rulekit/pkg/rules/transform"
	"mercator-hq/rulekit/pkg/telemetry/logging"
	"mercator-hq/rulekit/pkg/telemetry/metrics"
	"mercator-hq/rulekit/pkg/telemetry/tracing"
)

// loadConfig loads the --config file, or the defaults when none is given,
// applies RULEKIT_* environment overrides and then the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging)
	lc.Writer = w
	logger, err := logging.New(lc)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

// newTracer returns the configured tracer and a function that flushes it.
func newTracer(cfg *config.Config, logger *slog.Logger) (*tracing.Tracer, func(), error) {
	tracing.Version = Version
	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}
	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.Timeout)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}
	return tracer, shutdown, nil
}

func newTransformer(cfg *config.Config) (*template.Transformer, error) {
	t := template.NewTransformer()
	if err := transform.Register(t, cfg.Rules.Transforms...); err != nil {
		return nil, cli.NewConfigError("rules.transforms", err.Error())
	}
	return t, nil
}

func newLoader(cfg *config.Config) *ruleset.Loader {
	return registerFunctions(ruleset.NewLoader(ruleset.LoaderConfigFrom(&cfg.Rules)))
}

// auditSink is an open audit store with the recorder writing to it.
type auditSink struct {
	storage  audit.Storage
	recorder *recorder.Recorder
}

// openAudit opens the configured audit store. It returns nil when auditing
// is off.
func openAudit(cfg *config.Config, enabled bool, logger *slog.Logger, collector *metrics.Collector) (*auditSink, error) {
	if !enabled {
		return nil, nil
	}
	store, err := storage.New(&cfg.Audit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit storage: %w", err)
	}
	return &auditSink{
		storage:  store,
		recorder: recorder.NewRecorder(store, recorder.DefaultConfig(), logger, collector),
	}, nil
}

// Close drains the recorder and closes the store.
func (a *auditSink) Close() error {
	if a == nil {
		return nil
	}
	if err := a.recorder.Close(); err != nil {
		a.storage.Close()
		return err
	}
	return a.storage.Close()
}

// contextInput is one context document to evaluate.
type contextInput struct {
	// Name identifies the input in reports: the file name, with the line
	// number for JSON Lines input.
	Name   string
	Lookup template.Lookup
	Raw    []byte
}

// readContexts reads the --context argument. An empty path gives a single
// empty context and "-" reads stdin. JSON Lines files (.jsonl, .ndjson)
// hold one context per non-empty line; other files hold one JSON or YAML
// document.
func readContexts(cmd *cobra.Command, path string) ([]contextInput, error) {
	if path == "" {
		return []contextInput{{Name: "empty", Lookup: lookup.Map{}}}, nil
	}

	var data []byte
	var err error
	name := path
	if path == "-" {
		name = "stdin"
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read context: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return readJSONLines(name, data)
	}

	doc, err := lookup.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("context %s: %w", name, err)
	}
	return []contextInput{{Name: name, Lookup: doc, Raw: data}}, nil
}

func readJSONLines(name string, data []byte) ([]contextInput, error) {
	var inputs []contextInput
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		doc, err := lookup.ParseJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("context %s:%d: %w", name, line, err)
		}
		inputs = append(inputs, contextInput{
			Name:   fmt.Sprintf("%s:%d", name, line),
			Lookup: doc,
			Raw:    append([]byte(nil), raw...),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read context: %w", err)
	}
	return inputs, nil
}
