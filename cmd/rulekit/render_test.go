package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/rulekit/pkg/cli"
)

func TestRenderTemplate(t *testing.T) {
	resetGlobals(t)
	renderFlags.template = "https://example.com/{{urlencode(user.id)}}?os={{device.os}}"
	renderFlags.context = "testdata/ctx.json"

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, renderTemplate(cmd, nil))
	assert.Equal(t, "https://example.com/jane+doe?os=android\n", stdout.String())
}

func TestRenderTemplate_File(t *testing.T) {
	resetGlobals(t)
	renderFlags.file = "testdata/greeting.tmpl"
	renderFlags.context = "testdata/ctx.json"

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, renderTemplate(cmd, nil))
	assert.Equal(t, "Hello JANE DOE on android\n\n", stdout.String(), "missing values render empty")
}

func TestRenderTemplate_CustomDelimiters(t *testing.T) {
	resetGlobals(t)
	renderFlags.template = "Hi <%user.id%>, not {{user.id}}"
	renderFlags.context = "testdata/ctx.json"
	renderFlags.start, renderFlags.end = "<%", "%>"

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, renderTemplate(cmd, nil))
	assert.Equal(t, "Hi jane doe, not {{user.id}}\n", stdout.String())
}

func TestRenderTemplate_Explain(t *testing.T) {
	resetGlobals(t)
	renderFlags.template = "{{upper(device.os)}} {{missing}}"
	renderFlags.context = "testdata/ctx.json"
	renderFlags.explain = true
	renderFlags.format = "json"

	cmd, stdout, _ := newTestCommand()
	require.NoError(t, renderTemplate(cmd, nil))

	var report renderReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "ANDROID ", report.Output)
	require.Len(t, report.Tokens, 2)

	assert.Equal(t, "{{upper(device.os)}}", report.Tokens[0].Placeholder)
	assert.Equal(t, "device.os", report.Tokens[0].Key)
	assert.Equal(t, "upper", report.Tokens[0].Function)
	assert.Equal(t, "ANDROID", report.Tokens[0].Value)

	assert.Equal(t, "missing", report.Tokens[1].Key)
	assert.Equal(t, "absent", report.Tokens[1].Kind)
}

func TestRenderTemplate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{"no template", func() {}},
		{"template and file", func() {
			renderFlags.template = "x"
			renderFlags.file = "testdata/greeting.tmpl"
		}},
		{"batch context", func() {
			renderFlags.template = "{{a}}"
			renderFlags.context = "testdata/contexts.jsonl"
		}},
		{"csv explain", func() {
			renderFlags.template = "{{a}}"
			renderFlags.format = "csv"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)
			tt.setup()
			cmd, _, _ := newTestCommand()
			err := renderTemplate(cmd, nil)
			require.Error(t, err)
			assert.Equal(t, cli.ExitConfigError, cli.ExitCode(err))
		})
	}
}
