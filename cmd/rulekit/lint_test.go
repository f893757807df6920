package main

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/rulekit/pkg/cli"
	"mercator-hq/rulekit/pkg/rules/ruleset"
)

func TestLintRules_ValidFile(t *testing.T) {
	resetGlobals(t)
	lintFlags.rules = []string{"testdata/rules.yaml"}

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, lintRules(cmd, nil))
	assert.Equal(t, "✓ testdata/rules.yaml (3 rules)\n", stdout.String())
}

func TestLintRules_InvalidFile(t *testing.T) {
	resetGlobals(t)

	cmd, stdout, _ := newTestCommand()
	err := lintRules(cmd, []string{"testdata/invalid.yaml"})
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.ExitCode(err))
	assert.Contains(t, err.Error(), "1 of 1 rule sources failed validation")

	out := stdout.String()
	assert.Contains(t, out, "✗ testdata/invalid.yaml\n")
	assert.Contains(t, out, "  error: testdata/invalid.yaml:3: rule 0 has no id")
	assert.Contains(t, out, `  error: testdata/invalid.yaml:7 [bad-function]: unknown function "sum"`)
}

func TestLintRules_NonexistentFile(t *testing.T) {
	resetGlobals(t)
	lintFlags.rules = []string{"testdata/nonexistent.yaml"}

	cmd, stdout, _ := newTestCommand()
	require.Error(t, lintRules(cmd, nil))
	assert.Contains(t, stdout.String(), "failed to access path")
}

func TestLintRules_NoPaths(t *testing.T) {
	resetGlobals(t)

	cmd, _, _ := newTestCommand()
	err := lintRules(cmd, nil)
	require.Error(t, err)
	assert.Equal(t, cli.ExitConfigError, cli.ExitCode(err))
}

func TestLintRules_Warnings(t *testing.T) {
	resetGlobals(t)
	lintFlags.rules = []string{"testdata/warnings.yaml"}

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, lintRules(cmd, nil), "warnings alone pass")
	assert.Contains(t, stdout.String(), `  warning: testdata/warnings.yaml:4 [fuzzy]: unknown operator "resembles"`)

	lintFlags.strict = true
	cmd, stdout, _ = newTestCommand()
	err := lintRules(cmd, nil)
	require.Error(t, err, "strict mode fails on warnings")
	assert.Contains(t, stdout.String(), "✗ testdata/warnings.yaml")
}

func TestLintRules_JSON(t *testing.T) {
	resetGlobals(t)
	lintFlags.format = "json"

	cmd, stdout, _ := newTestCommand()
	err := lintRules(cmd, []string{"testdata/rules.yaml", "testdata/invalid.yaml"})
	require.Error(t, err)

	var results []LintResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
	require.Len(t, results, 2)

	assert.True(t, results[0].Valid)
	assert.Equal(t, 3, results[0].Rules)
	assert.Empty(t, results[0].Errors)

	assert.False(t, results[1].Valid)
	require.Len(t, results[1].Errors, 2)
	assert.Equal(t, "bad-function", results[1].Errors[1].RuleID)
	assert.Equal(t, 7, results[1].Errors[1].Line)
}

func TestLintRules_BadFormat(t *testing.T) {
	resetGlobals(t)
	lintFlags.format = "csv"

	cmd, _, _ := newTestCommand()
	err := lintRules(cmd, []string{"testdata/rules.yaml"})
	require.Error(t, err)
	assert.Equal(t, cli.ExitConfigError, cli.ExitCode(err))
}

func TestLintIssues(t *testing.T) {
	nested := &ruleset.LoadError{
		Path:    "rules",
		Message: "invalid rule documents",
		Cause: errors.Join(
			&ruleset.LoadError{Path: "a.yaml", Message: "invalid rules", Cause: errors.Join(
				&ruleset.RuleError{File: "a.yaml", RuleID: "x", Line: 2, Message: "bad"},
			)},
			&ruleset.LoadError{Path: "b.yaml", Message: "invalid rules", Cause: errors.Join(
				&ruleset.RuleError{File: "b.yaml", Line: 9, Message: "worse", Cause: errors.New("detail")},
			)},
		),
	}

	issues := lintIssues(nested)
	require.Len(t, issues, 2)
	assert.Equal(t, "a.yaml:2 [x]: bad", issues[0].String())
	assert.Equal(t, "b.yaml:9: worse: detail", issues[1].String())

	plain := lintIssues(errors.New("boom"))
	require.Len(t, plain, 1)
	assert.Equal(t, "boom", plain[0].String())
}
