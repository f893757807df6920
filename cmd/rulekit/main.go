// rulekit evaluates rule documents against runtime contexts.
//
// A rule document is YAML holding rules; each rule has a condition over
// placeholder operands like {{device.os}} and consequences whose details
// are templates rendered when the condition holds.
//
// Usage:
//
//	# Render a template against a context document
//	rulekit render --template 'Hello {{user.name}}' --context ctx.json
//
//	# Evaluate rules against a context
//	rulekit eval --rules rules.yaml --context ctx.json
//
//	# Evaluate one context per line and fail when nothing matched
//	rulekit eval --rules rules/ --context contexts.jsonl --fail-on-no-match
//
//	# Validate rule documents
//	rulekit lint --rules rules/ --strict
//
//	# Keep rules loaded, reload on change and serve metrics
//	rulekit watch --config rulekit.yaml --context ctx.json
//
//	# Inspect and prune recorded outcomes
//	rulekit audit list --rule android-user --format csv
//	rulekit audit prune
package main

func main() {
	Execute()
}
