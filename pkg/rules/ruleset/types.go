package ruleset

import (
	"sort"
	"time"

	"mercator-hq/rulekit/pkg/rules/condition"
	"mercator-hq/rulekit/pkg/rules/template"
)

// Ruleset is a loaded rule document, or several documents from one directory
// merged in file name order.
type Ruleset struct {
	Name    string
	Version string

	// Revision identifies the exact content loaded, such as a commit SHA for
	// rules pulled from git. It is empty for plain files.
	Revision string

	// Source is the file or directory the rules were read from.
	Source string

	// Rules are kept in document order, which is also evaluation order.
	Rules []*Rule

	// Warnings are problems that do not stop loading, such as operator text
	// that names no operator. Such conditions fail at evaluation time.
	Warnings []Warning

	LoadedAt time.Time
}

// Rule returns the rule with the given ID.
func (rs *Ruleset) Rule(id string) (*Rule, bool) {
	for _, r := range rs.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// EnabledCount returns the number of enabled rules.
func (rs *Ruleset) EnabledCount() int {
	n := 0
	for _, r := range rs.Rules {
		if r.Enabled {
			n++
		}
	}
	return n
}

// Rule is a condition plus the consequences emitted when it holds.
type Rule struct {
	ID          string
	Description string
	Enabled     bool

	// Condition is nil for a rule that always matches.
	Condition condition.Expression

	Consequences []*Consequence

	// Evaluator is the text comparison policy of the rule's document.
	Evaluator condition.Evaluator

	File string
	Line int
}

// Consequence is a payload whose detail values are templates rendered against
// the evaluation lookup when the rule matches.
type Consequence struct {
	ID     string
	Type   string
	Detail map[string]*template.Template
}

// Render renders every detail template.
func (c *Consequence) Render(lookup template.Lookup, transformer *template.Transformer) RenderedConsequence {
	out := RenderedConsequence{
		ID:     c.ID,
		Type:   c.Type,
		Detail: make(map[string]string, len(c.Detail)),
	}
	for key, tmpl := range c.Detail {
		out.Detail[key] = tmpl.Render(lookup, transformer)
	}
	return out
}

// DetailKeys returns the detail keys in sorted order.
func (c *Consequence) DetailKeys() []string {
	keys := make([]string, 0, len(c.Detail))
	for k := range c.Detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderedConsequence is a consequence with its detail rendered to text.
type RenderedConsequence struct {
	ID     string            `json:"id"`
	Type   string            `json:"type,omitempty"`
	Detail map[string]string `json:"detail,omitempty"`
}

// Warning is a non-fatal problem found while loading.
type Warning struct {
	File    string `json:"file,omitempty"`
	RuleID  string `json:"rule_id,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return formatLocation(w.File, w.RuleID, w.Line) + w.Message
}

// Evaluation is the outcome of evaluating a ruleset against one lookup.
type Evaluation struct {
	ID       string        `json:"id"`
	Ruleset  string        `json:"ruleset"`
	Version  string        `json:"version,omitempty"`
	Results  []RuleResult  `json:"results"`
	Revision string        `json:"revision,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Matched returns the results of the rules whose condition held.
func (e *Evaluation) Matched() []RuleResult {
	var out []RuleResult
	for _, r := range e.Results {
		if r.Result.Success {
			out = append(out, r)
		}
	}
	return out
}

// Consequences returns the rendered consequences of all matched rules in
// rule order.
func (e *Evaluation) Consequences() []RenderedConsequence {
	var out []RenderedConsequence
	for _, r := range e.Results {
		out = append(out, r.Consequences...)
	}
	return out
}

// RuleResult is the outcome of one rule.
type RuleResult struct {
	RuleID       string                `json:"rule_id"`
	Result       condition.Result      `json:"result"`
	Consequences []RenderedConsequence `json:"consequences,omitempty"`
	Duration     time.Duration         `json:"duration"`
}
