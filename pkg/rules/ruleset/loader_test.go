package ruleset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/rulekit/pkg/config"
	"mercator-hq/rulekit/pkg/rules/condition"
	"mercator-hq/rulekit/pkg/rules/lookup"
	"mercator-hq/rulekit/pkg/rules/template"
	"mercator-hq/rulekit/pkg/rules/value"
)

const launchRules = `
version: "1"
name: launch-rules
case_sensitivity: insensitive
rules:
  - id: android-user
    description: Android users on a recent build
    condition:
      all:
        - {lhs: "{{device.os}}", type: text, op: equals, rhs: Android}
        - any:
            - {operand: "{{user.id}}", op: exists}
            - {lhs: "{{app.version}}", type: number, op: greaterEqual, rhs: 2}
    consequences:
      - id: notify
        type: url
        detail:
          url: "https://example.com/{{urlencode(user.id)}}"
  - id: disabled
    enabled: false
  - id: always
`

func parse(t *testing.T, doc string) *Ruleset {
	t.Helper()
	rs, err := NewLoader(nil).Parse([]byte(doc), "rules.yaml")
	require.NoError(t, err)
	return rs
}

func TestParse_Document(t *testing.T) {
	rs := parse(t, launchRules)

	assert.Equal(t, "launch-rules", rs.Name)
	assert.Equal(t, "1", rs.Version)
	require.Len(t, rs.Rules, 3)
	assert.Equal(t, 2, rs.EnabledCount())
	assert.Empty(t, rs.Warnings)

	rule, ok := rs.Rule("android-user")
	require.True(t, ok)
	assert.True(t, rule.Enabled)
	assert.Equal(t, condition.CaseInsensitive, rule.Evaluator.Sensitivity())
	assert.Equal(t, "rules.yaml", rule.File)
	assert.Equal(t, 6, rule.Line)
	require.Len(t, rule.Consequences, 1)
	assert.Equal(t, []string{"url"}, rule.Consequences[0].DetailKeys())

	always, _ := rs.Rule("always")
	assert.Nil(t, always.Condition)

	disabled, _ := rs.Rule("disabled")
	assert.False(t, disabled.Enabled)
}

func TestParse_ConditionSemantics(t *testing.T) {
	rs := parse(t, launchRules)
	rule, _ := rs.Rule("android-user")

	tests := []struct {
		name string
		data lookup.Map
		want bool
		kind condition.FailureKind
	}{
		{
			name: "user present",
			data: lookup.Map{"device": map[string]interface{}{"os": "ANDROID"}, "user": map[string]interface{}{"id": "u1"}},
			want: true,
		},
		{
			name: "recent app version",
			data: lookup.Map{"device": map[string]interface{}{"os": "android"}, "app": map[string]interface{}{"version": 2.5}},
			want: true,
		},
		{
			name: "old app, no user",
			data: lookup.Map{"device": map[string]interface{}{"os": "android"}, "app": map[string]interface{}{"version": 1}},
			want: false,
			kind: condition.FailureConditionFailed,
		},
		{
			name: "other os",
			data: lookup.Map{"device": map[string]interface{}{"os": "iOS"}, "user": map[string]interface{}{"id": "u1"}},
			want: false,
			kind: condition.FailureConditionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rule.Condition.Evaluate(&condition.Context{Lookup: tt.data, Evaluator: rule.Evaluator})
			assert.Equal(t, tt.want, res.Success, res.Message)
			if !tt.want {
				assert.Equal(t, tt.kind, res.Kind)
			}
		})
	}
}

func TestParse_Operands(t *testing.T) {
	rs := parse(t, `
rules:
  - id: literals
    condition:
      - {lhs: 66, op: greaterThan, rhs: 55.55}
      - {lhs: "Deal", op: notEquals, rhs: "DEAL"}
      - {lhs: "{{flag}}", type: bool, op: equals, rhs: true}
      - {lhs: "{{count}}", lhs_type: int, op: "<", rhs: 10}
`)
	rule := rs.Rules[0]
	ctx := &condition.Context{Lookup: template.Values{"flag": value.Bool(true), "count": value.Int(3)}}
	res := rule.Condition.Evaluate(ctx)
	assert.True(t, res.Success, res.Message)

	ctx.Lookup = template.Values{"flag": value.Text("true"), "count": value.Int(3)}
	res = rule.Condition.Evaluate(ctx)
	assert.False(t, res.Success)
	assert.Equal(t, condition.FailureConditionFailed, res.Kind, "and reports its own failure")
}

func TestParse_Functions(t *testing.T) {
	loader := NewLoader(nil).RegisterFunction("sum", func(args ...value.Value) value.Value {
		var total int64
		for _, a := range args {
			n, _ := a.AsInt()
			total += n
		}
		return value.Int(total)
	})

	rs, err := loader.Parse([]byte(`
rules:
  - id: fn
    condition:
      lhs: {function: sum, type: int, args: [1, 2, 3]}
      op: equals
      rhs: 6
`), "fn.yaml")
	require.NoError(t, err)
	assert.True(t, rs.Rules[0].Condition.Evaluate(nil).Success)

	_, err = NewLoader(nil).Parse([]byte(`
rules:
  - id: fn
    condition: {lhs: {function: sum}, op: equals, rhs: 6}
`), "fn.yaml")
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Contains(t, ruleErr.Message, `unknown function "sum"`)
}

func TestParse_UnknownOperatorsAreWarnings(t *testing.T) {
	rs := parse(t, `
rules:
  - id: odd
    condition:
      conjunction: xor
      conditions:
        - {lhs: 1, op: resembles, rhs: 1}
        - {operand: "{{x}}", op: present}
`)
	require.Len(t, rs.Warnings, 3)
	assert.Equal(t, "odd", rs.Warnings[0].RuleID)
	assert.Contains(t, rs.Warnings[0].String(), `unknown conjunction "xor"`)
	assert.Contains(t, rs.Warnings[1].Message, `unknown operator "resembles"`)
	assert.Contains(t, rs.Warnings[2].Message, `unknown unary operator "present"`)

	res := rs.Rules[0].Condition.Evaluate(nil)
	assert.False(t, res.Success)
	assert.Equal(t, condition.FailureUnknownOperator, res.Kind)
}

func TestParse_CustomDelimiters(t *testing.T) {
	rs := parse(t, `
delimiters: {start: "<%", end: "%>"}
rules:
  - id: custom
    condition: {lhs: "<%name%>", op: equals, rhs: "{{name}}"}
    consequences:
      - id: greet
        detail: {text: "hi <%name%>"}
`)
	rule := rs.Rules[0]
	lookup := template.Values{"name": value.Text("{{name}}")}
	assert.True(t, rule.Condition.Evaluate(&condition.Context{Lookup: lookup}).Success)
	assert.Equal(t, "hi {{name}}", rule.Consequences[0].Render(lookup, nil).Detail["text"])
}

func TestLoaderConfigFrom(t *testing.T) {
	lc := LoaderConfigFrom(&config.RulesConfig{
		CaseInsensitive: true,
		Delimiters:      config.DelimitersConfig{Start: "[[", End: "]]"},
	})
	assert.Equal(t, condition.CaseInsensitive, lc.CaseSensitivity)
	assert.Equal(t, template.Delimiters{Start: "[[", End: "]]"}, lc.Delimiters)

	rs, err := NewLoader(lc).Parse([]byte(`
rules:
  - id: r
    condition: {lhs: "[[os]]", op: equals, rhs: linux}
`), "cfg.yaml")
	require.NoError(t, err)
	ok := rs.Rules[0].Condition.Evaluate(&condition.Context{
		Lookup:    template.Values{"os": value.Text("LINUX")},
		Evaluator: rs.Rules[0].Evaluator,
	})
	assert.True(t, ok.Success)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantMsg  string
		wantLine int
	}{
		{
			name:    "empty document",
			doc:     "",
			wantMsg: "document is empty",
		},
		{
			name:    "invalid yaml",
			doc:     "rules: [",
			wantMsg: "YAML parsing failed",
		},
		{
			name:    "bad case sensitivity",
			doc:     "case_sensitivity: sometimes\nrules: []",
			wantMsg: "invalid case_sensitivity",
		},
		{
			name:     "missing id",
			doc:      "rules:\n  - description: nameless\n",
			wantMsg:  "rule 0 has no id",
			wantLine: 2,
		},
		{
			name:     "unknown type",
			doc:      "rules:\n  - id: r\n    condition:\n      {lhs: \"{{a}}\", type: decimal, op: equals, rhs: 1}\n",
			wantMsg:  `unknown value type "decimal"`,
			wantLine: 4,
		},
		{
			name:     "condition without operator",
			doc:      "rules:\n  - id: r\n    condition:\n      lhs: 1\n",
			wantMsg:  "needs one of all, any, conjunction or op",
			wantLine: 4,
		},
		{
			name:     "comparison without rhs",
			doc:      "rules:\n  - id: r\n    condition: {lhs: 1, op: equals}\n",
			wantMsg:  "needs lhs and rhs",
			wantLine: 3,
		},
		{
			name:     "duplicate id",
			doc:      "rules:\n  - id: r\n  - id: r\n",
			wantMsg:  "duplicate rule id, first defined at line 2",
			wantLine: 3,
		},
		{
			name:     "consequence without id",
			doc:      "rules:\n  - id: r\n    consequences:\n      - type: url\n",
			wantMsg:  "consequence 0 has no id",
			wantLine: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(nil).Parse([]byte(tt.doc), "bad.yaml")
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "bad.yaml", loadErr.Path)
			assert.Contains(t, err.Error(), tt.wantMsg)

			if tt.wantLine > 0 {
				var ruleErr *RuleError
				require.ErrorAs(t, err, &ruleErr)
				assert.Equal(t, tt.wantLine, ruleErr.Line)
			}
		})
	}
}

func TestParse_CollectsAllErrors(t *testing.T) {
	_, err := NewLoader(nil).Parse([]byte("rules:\n  - description: a\n  - description: b\n"), "bad.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 0 has no id")
	assert.Contains(t, err.Error(), "rule 1 has no id")
}

func TestParse_MaxDepth(t *testing.T) {
	cfg := DefaultLoaderConfig()
	cfg.MaxDepth = 2
	_, err := NewLoader(cfg).Parse([]byte(`
rules:
  - id: deep
    condition:
      all:
        - all:
            - {lhs: 1, op: equals, rhs: 1}
`), "deep.yaml")
	assert.ErrorContains(t, err, "maximum depth 2")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launch.yaml")
	writeFile(t, path, "rules:\n  - id: one\n")

	rs, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "launch", rs.Name, "name defaults to the file name")
	assert.Equal(t, path, rs.Source)

	_, err = NewLoader(nil).Load(filepath.Join(dir, "missing.yaml"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "name: merged\nrules:\n  - id: one\n")
	writeFile(t, filepath.Join(dir, "nested", "b.yml"), "rules:\n  - id: two\n")
	writeFile(t, filepath.Join(dir, ".hidden.yaml"), "rules:\n  - id: hidden\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not rules")

	rs, err := NewLoader(nil).Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "merged", rs.Name)
	assert.Equal(t, dir, rs.Source)
	require.Len(t, rs.Rules, 2)
	assert.Equal(t, "one", rs.Rules[0].ID)
	assert.Equal(t, "two", rs.Rules[1].ID)
}

func TestLoad_DirectoryDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "rules:\n  - id: same\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "rules:\n  - id: same\n")

	_, err := NewLoader(nil).Load(dir)
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, "same", ruleErr.RuleID)
	assert.Contains(t, ruleErr.Message, "a.yaml:2")
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := NewLoader(nil).Load(t.TempDir())
	assert.ErrorContains(t, err, "no rule files found")
}
