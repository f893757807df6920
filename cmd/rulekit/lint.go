package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/rulekit/pkg/cli"
	"mercator-hq/rulekit/pkg/rules/ruleset"
)

var lintFlags struct {
	rules  []string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint [path...]",
	Short: "Validate rule documents",
	Long: `Validate rule documents without evaluating them.

The lint command loads each file or directory and reports:
  - YAML syntax errors
  - Rule structure errors (missing ids, duplicate ids, bad condition shapes)
  - Unknown types and functions
  - Warnings for operator or conjunction text that names no operator; such
    conditions always fail at evaluation time

Examples:
  # Lint a single file
  rulekit lint --rules rules.yaml

  # Lint several paths
  rulekit lint rules/ extra.yaml

  # Strict mode (warnings as errors)
  rulekit lint --rules rules/ --strict

  # JSON output for CI/CD
  rulekit lint --rules rules.yaml --format json`,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringSliceVarP(&lintFlags.rules, "rules", "r", nil, "rule file or directory to validate (repeatable)")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json")
}

// LintResult is the validation result for one file or directory.
type LintResult struct {
	Path     string      `json:"path"`
	Valid    bool        `json:"valid"`
	Rules    int         `json:"rules"`
	Errors   []LintIssue `json:"errors,omitempty"`
	Warnings []LintIssue `json:"warnings,omitempty"`
}

// LintIssue is a single error or warning.
type LintIssue struct {
	File    string `json:"file,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (i LintIssue) String() string {
	loc := i.File
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, i.Line)
	}
	if i.RuleID != "" {
		loc = fmt.Sprintf("%s [%s]", loc, i.RuleID)
	}
	if loc == "" {
		return i.Message
	}
	return loc + ": " + i.Message
}

type lintReport []LintResult

func (r lintReport) WriteText(w io.Writer) error {
	for _, res := range r {
		if res.Valid && len(res.Warnings) == 0 {
			fmt.Fprintf(w, "✓ %s (%d rules)\n", res.Path, res.Rules)
			continue
		}
		mark := "✓"
		if !res.Valid {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, res.Path)
		for _, e := range res.Errors {
			fmt.Fprintf(w, "  error: %s\n", e)
		}
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}
	return nil
}

func lintRules(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(lintFlags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}

	paths := append(append([]string(nil), lintFlags.rules...), args...)
	if len(paths) == 0 {
		return cli.NewConfigError("rules", "at least one rule file or directory must be specified")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loader := newLoader(cfg)

	report := make(lintReport, 0, len(paths))
	failed := 0
	for _, path := range paths {
		result := lintPath(loader, path)
		if lintFlags.strict && len(result.Warnings) > 0 {
			result.Valid = false
		}
		if !result.Valid {
			failed++
		}
		report = append(report, result)
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if failed > 0 {
		return &cli.ExitError{
			Code:    cli.ExitFailure,
			Message: fmt.Sprintf("%d of %d rule sources failed validation", failed, len(paths)),
		}
	}
	return nil
}

func lintPath(loader *ruleset.Loader, path string) LintResult {
	result := LintResult{Path: path, Valid: true}

	rs, err := loader.Load(path)
	if err != nil {
		result.Valid = false
		result.Errors = lintIssues(err)
		return result
	}

	result.Rules = len(rs.Rules)
	for _, w := range rs.Warnings {
		result.Warnings = append(result.Warnings, LintIssue{
			File:    w.File,
			RuleID:  w.RuleID,
			Line:    w.Line,
			Message: w.Message,
		})
	}
	return result
}

// lintIssues flattens a load error into one issue per RuleError. Errors
// without rule locations become a single issue.
func lintIssues(err error) []LintIssue {
	var ruleErrs []*ruleset.RuleError
	collectRuleErrors(err, &ruleErrs)
	if len(ruleErrs) == 0 {
		return []LintIssue{{Message: err.Error()}}
	}

	issues := make([]LintIssue, 0, len(ruleErrs))
	for _, re := range ruleErrs {
		msg := re.Message
		if re.Cause != nil {
			msg += ": " + re.Cause.Error()
		}
		issues = append(issues, LintIssue{File: re.File, RuleID: re.RuleID, Line: re.Line, Message: msg})
	}
	return issues
}

func collectRuleErrors(err error, out *[]*ruleset.RuleError) {
	if err == nil {
		return
	}
	if re, ok := err.(*ruleset.RuleError); ok {
		*out = append(*out, re)
		return
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			collectRuleErrors(e, out)
		}
	case interface{ Unwrap() error }:
		collectRuleErrors(u.Unwrap(), out)
	}
}
