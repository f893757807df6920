// Package ruleset loads rule documents and evaluates them.
//
// A rule document is YAML:
//
//	version: "1"
//	name: launch-rules
//	case_sensitivity: insensitive
//	rules:
//	  - id: android-user
//	    condition:
//	      all:
//	        - {lhs: "{{device.os}}", type: text, op: equals, rhs: Android}
//	        - any:
//	            - {operand: "{{user.id}}", op: exists}
//	            - {lhs: "{{app.version}}", type: number, op: greaterEqual, rhs: 2}
//	    consequences:
//	      - id: notify
//	        type: url
//	        detail:
//	          url: "https://example.com/{{urlencode(user.id)}}"
//
// Operand strings holding a placeholder become template operands checked
// against the sibling type (lhs_type and rhs_type override it per side).
// Other scalars are literals. A mapping with a function key calls a block
// registered on the Loader. Operator and conjunction text that names nothing
// known is accepted at load time, reported as a Warning, and fails with
// unknown_operator when evaluated.
//
// The Registry holds the active Ruleset and swaps it atomically on Reload.
// A FileWatcher or GitSource.Poll drives reloads. The Engine evaluates
// enabled rules in document order, renders the consequences of matching
// rules and reports each outcome to metrics, tracing and the audit recorder.
package ruleset
