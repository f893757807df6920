package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/rulekit/pkg/cli"
	"mercator-hq/rulekit/pkg/rules/ruleset"
)

var evalFlags struct {
	rules         string
	context       string
	format        string
	only          []string
	failOnNoMatch bool
	progress      bool
	audit         bool
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate rules against context documents",
	Long: `Evaluate every enabled rule against one or more context documents and
report which rules matched and their rendered consequences.

The context is a JSON or YAML document, or a JSON Lines file (.jsonl,
.ndjson) holding one context per line.

Examples:
  # Evaluate a rule file against a context
  rulekit eval --rules rules.yaml --context ctx.json

  # Evaluate a directory of rules against many contexts, as CSV
  rulekit eval --rules rules/ --context contexts.jsonl --format csv --progress

  # Only some rules, failing (exit 3) when none of them matched
  rulekit eval --rules rules.yaml --context ctx.json --only android-user --fail-on-no-match

  # Record every outcome to the configured audit store
  rulekit eval --config rulekit.yaml --context ctx.json --audit`,
	RunE: evalRules,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.rules, "rules", "r", "", "rule file or directory (default: rules.file_path from config)")
	evalCmd.Flags().StringVar(&evalFlags.context, "context", "", "context document or JSON Lines file (- for stdin)")
	evalCmd.Flags().StringVar(&evalFlags.format, "format", "text", "output format: text, json, csv")
	evalCmd.Flags().StringSliceVar(&evalFlags.only, "only", nil, "evaluate only these rule IDs")
	evalCmd.Flags().BoolVar(&evalFlags.failOnNoMatch, "fail-on-no-match", false, "exit with status 3 when no rule matched")
	evalCmd.Flags().BoolVar(&evalFlags.progress, "progress", false, "report progress on stderr for multiple contexts")
	evalCmd.Flags().BoolVar(&evalFlags.audit, "audit", false, "record outcomes to the audit store (default: audit.enabled from config)")
}

// evalEntry is the evaluation of one context.
type evalEntry struct {
	Context string `json:"context"`
	*ruleset.Evaluation
}

// evalReport is the output of eval and of each watch reload.
type evalReport struct {
	Entries []evalEntry
}

func (r evalReport) matched() int {
	n := 0
	for _, e := range r.Entries {
		n += len(e.Matched())
	}
	return n
}

// jsonValue is a single entry for one context and the list otherwise.
func (r evalReport) jsonValue() interface{} {
	if len(r.Entries) == 1 {
		return r.Entries[0]
	}
	return r.Entries
}

func (r evalReport) WriteText(w io.Writer) error {
	for i, e := range r.Entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := fmt.Sprintf("%s: %s", e.Context, e.Ruleset)
		if e.Version != "" {
			header += fmt.Sprintf(" (version %s)", e.Version)
		}
		fmt.Fprintln(w, header)

		for _, res := range e.Results {
			if !res.Result.Success {
				fmt.Fprintf(w, "  ✗ %s: %s\n", res.RuleID, res.Result.Message)
				continue
			}
			fmt.Fprintf(w, "  ✓ %s\n", res.RuleID)
			for _, c := range res.Consequences {
				fmt.Fprintf(w, "      %s", c.ID)
				if c.Type != "" {
					fmt.Fprintf(w, " (%s)", c.Type)
				}
				for _, k := range sortedKeys(c.Detail) {
					fmt.Fprintf(w, " %s=%s", k, c.Detail[k])
				}
				fmt.Fprintln(w)
			}
		}
		fmt.Fprintf(w, "  %d of %d rules matched\n", len(e.Matched()), len(e.Results))
	}
	return nil
}

func (r evalReport) Header() []string {
	return []string{"context", "evaluation_id", "ruleset", "rule_id", "matched", "kind", "message", "consequences"}
}

func (r evalReport) Rows() [][]string {
	var rows [][]string
	for _, e := range r.Entries {
		for _, res := range e.Results {
			ids := make([]string, len(res.Consequences))
			for i, c := range res.Consequences {
				ids[i] = c.ID
			}
			rows = append(rows, []string{
				e.Context,
				e.ID,
				e.Ruleset,
				res.RuleID,
				strconv.FormatBool(res.Result.Success),
				res.Result.Kind.String(),
				res.Result.Message,
				strings.Join(ids, ";"),
			})
		}
	}
	return rows
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeReport(w io.Writer, format cli.OutputFormat, report evalReport) error {
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(w, report.jsonValue())
	}
	return cli.NewFormatter(format).FormatTo(w, report)
}

func evalRules(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evalFlags.format)
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
	transformer, err := newTransformer(cfg)
	if err != nil {
		return err
	}

	path := evalFlags.rules
	if path == "" {
		path = cfg.Rules.FilePath
	}
	rs, err := newLoader(cfg).Load(path)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	for _, w := range rs.Warnings {
		logger.Warn("rule warning", "warning", w.String())
	}
	for _, id := range evalFlags.only {
		if _, ok := rs.Rule(id); !ok {
			return cli.NewConfigError("only", fmt.Sprintf("unknown rule %q", id))
		}
	}

	inputs, err := readContexts(cmd, evalFlags.context)
	if err != nil {
		return err
	}

	tracer, shutdownTracer, err := newTracer(cfg, logger)
	if err != nil {
		return err
	}
	defer shutdownTracer()

	auditEnabled := cfg.Audit.Enabled
	if cmd.Flags().Changed("audit") {
		auditEnabled = evalFlags.audit
	}
	sink, err := openAudit(cfg, auditEnabled, logger, nil)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error("failed to close audit storage", "error", err)
		}
	}()

	opts := []ruleset.EngineOption{
		ruleset.WithTransformer(transformer),
		ruleset.WithLogger(logger),
		ruleset.WithTracer(tracer),
	}
	if sink != nil {
		opts = append(opts, ruleset.WithRecorder(sink.recorder))
	}
	engine := ruleset.NewEngine(ruleset.Fixed(rs), opts...)

	ctx := commandContext(cmd)

	var progress cli.ProgressReporter
	if evalFlags.progress && len(inputs) > 1 {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "contexts")
		progress.Start(int64(len(inputs)))
	}

	report, err := evaluateInputs(ctx, engine, inputs, evalFlags.only, progress)
	if err != nil {
		if progress != nil {
			progress.Error(err)
		}
		return cli.NewCommandError("eval", err)
	}
	if progress != nil {
		progress.Finish()
	}

	if err := writeReport(cmd.OutOrStdout(), format, report); err != nil {
		return err
	}

	if evalFlags.failOnNoMatch && report.matched() == 0 {
		return &cli.ExitError{Code: cli.ExitNoMatch}
	}
	return nil
}

// evaluateInputs evaluates each input in order. Progress may be nil.
func evaluateInputs(ctx context.Context, engine *ruleset.Engine, inputs []contextInput, only []string, progress cli.ProgressReporter) (evalReport, error) {
	report := evalReport{Entries: make([]evalEntry, 0, len(inputs))}
	for i, in := range inputs {
		opts := []ruleset.EvaluateOption{ruleset.WithInput(in.Raw)}
		if len(only) > 0 {
			opts = append(opts, ruleset.OnlyRules(only...))
		}

		eval, err := engine.Evaluate(ctx, in.Lookup, opts...)
		if err != nil {
			return report, fmt.Errorf("context %s: %w", in.Name, err)
		}
		report.Entries = append(report.Entries, evalEntry{Context: in.Name, Evaluation: eval})

		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	return report, nil
}
