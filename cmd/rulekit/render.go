package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/rulekit/pkg/cli"
	"mercator-hq/rulekit/pkg/rules/template"
)

var renderFlags struct {
	template string
	file     string
	context  string
	start    string
	end      string
	explain  bool
	format   string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a template against a context",
	Long: `Render a placeholder template against a context document.

Placeholders are {{key}} lookups or {{transform(key)}} calls. Keys are paths
into the context document; missing values render as empty text.

Examples:
  # Render an inline template
  rulekit render --template 'Hello {{user.name}}' --context ctx.json

  # Custom delimiters
  rulekit render --template 'Hello <%user.name%>' --start '<%' --end '%>' --context ctx.yaml

  # Show how each placeholder resolved
  rulekit render --file greeting.tmpl --context ctx.json --explain --format json`,
	RunE: renderTemplate,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderFlags.template, "template", "t", "", "template text")
	renderCmd.Flags().StringVarP(&renderFlags.file, "file", "f", "", "read the template from a file")
	renderCmd.Flags().StringVar(&renderFlags.context, "context", "", "context document (JSON or YAML, - for stdin)")
	renderCmd.Flags().StringVar(&renderFlags.start, "start", "", "placeholder start delimiter (default from config)")
	renderCmd.Flags().StringVar(&renderFlags.end, "end", "", "placeholder end delimiter (default from config)")
	renderCmd.Flags().BoolVar(&renderFlags.explain, "explain", false, "report each placeholder and its value")
	renderCmd.Flags().StringVar(&renderFlags.format, "format", "text", "output format with --explain: text, json")
}

// renderReport is the --explain output.
type renderReport struct {
	Output string        `json:"output"`
	Tokens []tokenReport `json:"tokens"`
}

type tokenReport struct {
	Placeholder string `json:"placeholder"`
	Key         string `json:"key"`
	Function    string `json:"function,omitempty"`
	Kind        string `json:"kind"`
	Value       string `json:"value"`
}

func (r renderReport) WriteText(w io.Writer) error {
	for _, t := range r.Tokens {
		if _, err := fmt.Fprintf(w, "%-30s %-8s %q\n", t.Placeholder, t.Kind, t.Value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", r.Output)
	return err
}

func renderTemplate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(renderFlags.format, cli.FormatText, cli.FormatJSON)
	if err != nil {
		return err
	}

	source := renderFlags.template
	if renderFlags.file != "" {
		if source != "" {
			return cli.NewConfigError("template", "use either --template or --file")
		}
		data, err := os.ReadFile(renderFlags.file)
		if err != nil {
			return fmt.Errorf("failed to read template: %w", err)
		}
		source = string(data)
	}
	if source == "" {
		return cli.NewConfigError("template", "either --template or --file must be specified")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	transformer, err := newTransformer(cfg)
	if err != nil {
		return err
	}

	delims := template.Delimiters{Start: cfg.Rules.Delimiters.Start, End: cfg.Rules.Delimiters.End}
	if renderFlags.start != "" {
		delims.Start = renderFlags.start
	}
	if renderFlags.end != "" {
		delims.End = renderFlags.end
	}

	inputs, err := readContexts(cmd, renderFlags.context)
	if err != nil {
		return err
	}
	if len(inputs) != 1 {
		return cli.NewConfigError("context", "render takes a single context document")
	}
	lookup := inputs[0].Lookup

	tmpl := template.ParseWith(source, delims)
	out := tmpl.Render(lookup, transformer)

	if !renderFlags.explain {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	}

	report := renderReport{Output: out, Tokens: []tokenReport{}}
	for _, seg := range tmpl.Tokens() {
		tok := seg.Token()
		v := tok.Resolve(lookup, transformer)
		report.Tokens = append(report.Tokens, tokenReport{
			Placeholder: delims.Start + seg.Inner + delims.End,
			Key:         tok.Key,
			Function:    tok.Function,
			Kind:        v.Kind().String(),
			Value:       v.String(),
		})
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report)
}
