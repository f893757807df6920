package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// newTestCommand returns a command with captured output, standing in for
// the cobra command a RunE function receives.
func newTestCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetContext(context.Background())
	return cmd, stdout, stderr
}

// resetGlobals clears every command's flags. Logging is kept quiet.
func resetGlobals(t *testing.T) {
	t.Helper()
	cfgFile, verbose, logLevel = "", false, "error"
	versionFormat = "text"

	evalFlags.rules, evalFlags.context, evalFlags.format = "", "", "text"
	evalFlags.only = nil
	evalFlags.failOnNoMatch, evalFlags.progress, evalFlags.audit = false, false, false

	lintFlags.rules, lintFlags.strict, lintFlags.format = nil, false, "text"

	renderFlags.template, renderFlags.file, renderFlags.context = "", "", ""
	renderFlags.start, renderFlags.end = "", ""
	renderFlags.explain, renderFlags.format = false, "text"

	auditFlags.timeRange, auditFlags.since = "", 0
	auditFlags.ruleset, auditFlags.rule, auditFlags.evaluation, auditFlags.kind = "", "", "", ""
	auditFlags.success = false
	auditFlags.limit, auditFlags.offset = 100, 0
	auditFlags.format, auditFlags.output = "text", ""
	auditFlags.retentionDays, auditFlags.maxRecords, auditFlags.dryRun = 0, 0, false
}

// writeSQLiteConfig writes a config enabling the sqlite audit backend in a
// temporary directory and selects it with --config.
func writeSQLiteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "audit.db")
	path := filepath.Join(dir, "rulekit.yaml")
	doc := "rules:\n  file_path: testdata/rules.yaml\n" +
		"audit:\n  enabled: true\n  backend: sqlite\n  sqlite:\n    path: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	cfgFile = path
	return dbPath
}
