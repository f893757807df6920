package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"testing"
)

type greeting struct {
	Name string `json:"name"`
}

func (g greeting) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "hello %s\n", g.Name)
	return err
}

type ruleTable [][]string

func (t ruleTable) Header() []string { return []string{"rule_id", "matched"} }
func (t ruleTable) Rows() [][]string { return t }

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}

	output, err := formatter.Format("test message")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(output) != "test message\n" {
		t.Errorf("Format() = %q, want %q", string(output), "test message\n")
	}

	buf := &bytes.Buffer{}
	if err := formatter.FormatTo(buf, greeting{Name: "rulekit"}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "hello rulekit\n" {
		t.Errorf("FormatTo() = %q, want Texter output", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   interface{}
		indent bool
	}{
		{name: "simple string", data: "test"},
		{name: "map with indent", data: map[string]string{"key": "value"}, indent: true},
		{name: "struct", data: greeting{Name: "test"}, indent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}
			output, err := formatter.Format(tt.data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			var result interface{}
			if err := json.Unmarshal(output, &result); err != nil {
				t.Errorf("Format() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestJSONFormatterWriter(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}
	buf := &bytes.Buffer{}

	if err := formatter.FormatTo(buf, map[string]string{"test": "value"}); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("FormatTo() produced invalid JSON: %v", err)
	}
	if result["test"] != "value" {
		t.Errorf("FormatTo() = %v", result)
	}
}

func TestCSVFormatter(t *testing.T) {
	table := ruleTable{{"android-user", "true"}, {"with,comma", "false"}}

	output, err := (&CSVFormatter{}).Format(table)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "rule_id,matched\nandroid-user,true\n\"with,comma\",false\n"
	if string(output) != want {
		t.Errorf("Format() = %q, want %q", string(output), want)
	}

	output, err = (&CSVFormatter{NoHeader: true}).Format(table)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(output) != "android-user,true\n\"with,comma\",false\n" {
		t.Errorf("Format() without header = %q", string(output))
	}

	if _, err := (&CSVFormatter{}).Format("not a table"); err == nil {
		t.Error("Format() expected error for a value that is not a Table")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{format: FormatText, want: "*cli.TextFormatter"},
		{format: FormatJSON, want: "*cli.JSONFormatter"},
		{format: FormatCSV, want: "*cli.CSVFormatter"},
		{format: "unknown", want: "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			got := fmt.Sprintf("%T", NewFormatter(tt.format))
			if got != tt.want {
				t.Errorf("NewFormatter(%q) type = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		allowed []OutputFormat
		want    OutputFormat
		wantErr bool
	}{
		{input: "", want: FormatText},
		{input: "JSON", want: FormatJSON},
		{input: "csv", want: FormatCSV},
		{input: "xml", wantErr: true},
		{input: "csv", allowed: []OutputFormat{FormatText, FormatJSON}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input, tt.allowed...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if ExitCode(err) != ExitConfigError {
					t.Errorf("ParseFormat() error should be a ConfigError, got %T", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}
