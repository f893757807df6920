package ruleset

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/rulekit/pkg/rules/condition"
	"mercator-hq/rulekit/pkg/rules/template"
	"mercator-hq/rulekit/pkg/rules/value"
)

// builder turns decoded YAML into rules. It collects every error in a
// document instead of stopping at the first one.
type builder struct {
	file      string
	delims    template.Delimiters
	evaluator condition.Evaluator
	functions map[string]condition.FunctionBlock
	maxDepth  int

	ruleID   string
	errs     []error
	warnings []Warning
}

func (b *builder) errorf(node *yaml.Node, format string, args ...interface{}) {
	b.errs = append(b.errs, &RuleError{
		File:    b.file,
		RuleID:  b.ruleID,
		Line:    line(node),
		Message: fmt.Sprintf(format, args...),
	})
}

func (b *builder) warnf(node *yaml.Node, format string, args ...interface{}) {
	b.warnings = append(b.warnings, Warning{
		File:    b.file,
		RuleID:  b.ruleID,
		Line:    line(node),
		Message: fmt.Sprintf(format, args...),
	})
}

func line(node *yaml.Node) int {
	if node == nil {
		return 0
	}
	return node.Line
}

// buildRule decodes one rule node. It returns nil if the rule has errors.
func (b *builder) buildRule(node *yaml.Node, index int) *Rule {
	b.ruleID = ""
	node = resolveAlias(node)
	if node.Kind != yaml.MappingNode {
		b.errorf(node, "rule %d must be a mapping", index)
		return nil
	}

	var yr yamlRule
	if err := node.Decode(&yr); err != nil {
		b.errs = append(b.errs, &RuleError{File: b.file, Line: node.Line, Message: fmt.Sprintf("invalid rule %d", index), Cause: err})
		return nil
	}
	b.ruleID = yr.ID

	for key, val := range mappingFields(node) {
		if !knownRuleKeys[key] {
			b.warnf(val, "unknown rule field %q", key)
		}
	}

	before := len(b.errs)
	if strings.TrimSpace(yr.ID) == "" {
		b.errorf(node, "rule %d has no id", index)
	}

	rule := &Rule{
		ID:          yr.ID,
		Description: yr.Description,
		Enabled:     yr.Enabled == nil || *yr.Enabled,
		Evaluator:   b.evaluator,
		File:        b.file,
		Line:        node.Line,
	}

	if yr.Condition.Kind != 0 && yr.Condition.Tag != "!!null" {
		rule.Condition = b.buildCondition(&yr.Condition, 1)
	}

	seen := make(map[string]bool, len(yr.Consequences))
	for i, yc := range yr.Consequences {
		if yc.ID == "" {
			b.errorf(node, "consequence %d has no id", i)
			continue
		}
		if seen[yc.ID] {
			b.errorf(node, "duplicate consequence id %q", yc.ID)
			continue
		}
		seen[yc.ID] = true
		rule.Consequences = append(rule.Consequences, b.buildConsequence(yc))
	}

	if len(b.errs) > before {
		return nil
	}
	return rule
}

func (b *builder) buildConsequence(yc yamlConsequence) *Consequence {
	c := &Consequence{
		ID:     yc.ID,
		Type:   yc.Type,
		Detail: make(map[string]*template.Template, len(yc.Detail)),
	}
	for key, src := range yc.Detail {
		c.Detail[key] = template.ParseWith(src, b.delims)
	}
	return c
}

// buildCondition builds an expression from a condition node:
//
//	all: [...]                        and
//	any: [...]                        or
//	conjunction: <text>, conditions:  logical with arbitrary conjunction text
//	operand: x, op: exists            unary
//	lhs: x, op: equals, rhs: y        comparison
//	[...]                             and
func (b *builder) buildCondition(node *yaml.Node, depth int) condition.Expression {
	node = resolveAlias(node)
	if depth > b.maxDepth {
		b.errorf(node, "condition nesting exceeds maximum depth %d", b.maxDepth)
		return nil
	}

	switch node.Kind {
	case yaml.SequenceNode:
		return condition.And(b.buildChildren(node, depth)...)
	case yaml.MappingNode:
		return b.buildConditionMap(node, depth)
	default:
		b.errorf(node, "condition must be a mapping or a list, got %q", node.Value)
		return nil
	}
}

func (b *builder) buildConditionMap(node *yaml.Node, depth int) condition.Expression {
	fields := mappingFields(node)

	if children, ok := fields["all"]; ok {
		return condition.NewLogical("and", b.buildChildList(children, depth)...)
	}
	if children, ok := fields["any"]; ok {
		return condition.NewLogical("or", b.buildChildList(children, depth)...)
	}
	if conj, ok := fields["conjunction"]; ok {
		if condition.ParseConjunction(conj.Value) == condition.ConjunctionUnknown {
			b.warnf(conj, "unknown conjunction %q", conj.Value)
		}
		var children []condition.Expression
		if list, ok := fields["conditions"]; ok {
			children = b.buildChildList(list, depth)
		}
		return condition.NewLogical(conj.Value, children...)
	}

	opNode, ok := fields["op"]
	if !ok {
		b.errorf(node, "condition needs one of all, any, conjunction or op")
		return nil
	}
	op := opNode.Value

	expected, ok := b.typeField(fields, "type", value.TypeAny)
	if !ok {
		return nil
	}

	if operand, ok := fields["operand"]; ok {
		if condition.ParseUnaryOperator(op) == condition.UnaryUnknown {
			b.warnf(opNode, "unknown unary operator %q", op)
		}
		return condition.NewUnary(b.buildOperand(operand, expected), op)
	}

	lhsNode, hasLHS := fields["lhs"]
	rhsNode, hasRHS := fields["rhs"]
	if !hasLHS || !hasRHS {
		b.errorf(node, "comparison %q needs lhs and rhs", op)
		return nil
	}
	if condition.ParseOperator(op) == condition.OperatorUnknown {
		b.warnf(opNode, "unknown operator %q", op)
	}

	lhsType, ok1 := b.typeField(fields, "lhs_type", expected)
	rhsType, ok2 := b.typeField(fields, "rhs_type", expected)
	if !ok1 || !ok2 {
		return nil
	}
	return condition.NewComparison(b.buildOperand(lhsNode, lhsType), op, b.buildOperand(rhsNode, rhsType))
}

func (b *builder) typeField(fields map[string]*yaml.Node, key string, def value.Type) (value.Type, bool) {
	node, ok := fields[key]
	if !ok {
		return def, true
	}
	t, err := value.ParseType(node.Value)
	if err != nil {
		b.errorf(node, "%s: %v", key, err)
		return def, false
	}
	return t, true
}

func (b *builder) buildChildList(node *yaml.Node, depth int) []condition.Expression {
	node = resolveAlias(node)
	if node.Kind != yaml.SequenceNode {
		b.errorf(node, "expected a list of conditions")
		return nil
	}
	return b.buildChildren(node, depth)
}

func (b *builder) buildChildren(node *yaml.Node, depth int) []condition.Expression {
	children := make([]condition.Expression, 0, len(node.Content))
	for _, child := range node.Content {
		if expr := b.buildCondition(child, depth+1); expr != nil {
			children = append(children, expr)
		}
	}
	return children
}

// buildOperand builds an operand. Strings holding a placeholder become
// template tokens, other scalars become literals and a mapping with a
// function key calls a registered function.
func (b *builder) buildOperand(node *yaml.Node, expected value.Type) condition.Operand {
	node = resolveAlias(node)

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" && template.ParseWith(node.Value, b.delims).HasTokens() {
			return condition.NewTemplateTokenWith(node.Value, expected, b.delims)
		}
		v, err := scalarValue(node)
		if err != nil {
			b.errorf(node, "invalid literal %q: %v", node.Value, err)
			return nil
		}
		return condition.NewLiteral(v)

	case yaml.MappingNode:
		return b.buildFunction(node, expected)

	default:
		b.errorf(node, "operand must be a scalar or a function call")
		return nil
	}
}

func (b *builder) buildFunction(node *yaml.Node, expected value.Type) condition.Operand {
	fields := mappingFields(node)

	nameNode, ok := fields["function"]
	if !ok {
		b.errorf(node, "operand mapping needs a function key")
		return nil
	}
	block, ok := b.functions[nameNode.Value]
	if !ok {
		b.errorf(nameNode, "unknown function %q", nameNode.Value)
		return nil
	}

	expected, ok = b.typeField(fields, "type", expected)
	if !ok {
		return nil
	}

	var args []interface{}
	if argsNode, ok := fields["args"]; ok {
		argsNode = resolveAlias(argsNode)
		if argsNode.Kind != yaml.SequenceNode {
			b.errorf(argsNode, "function args must be a list")
			return nil
		}
		for _, arg := range argsNode.Content {
			arg = resolveAlias(arg)
			if arg.Kind != yaml.ScalarNode {
				b.errorf(arg, "function arguments must be scalars")
				return nil
			}
			v, err := scalarValue(arg)
			if err != nil {
				b.errorf(arg, "invalid argument %q: %v", arg.Value, err)
				return nil
			}
			args = append(args, v)
		}
	}

	return condition.NewFunction(nameNode.Value, expected, block, args...)
}
