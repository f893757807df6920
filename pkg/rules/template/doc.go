// Package template parses and renders placeholder-bearing strings.
//
// A template such as "https://example.com/{{urlencode(user.id)}}?os={{device.os}}"
// is parsed once into an ordered list of segments: literal text and
// placeholders. Rendering walks the segments and asks a Lookup for each
// placeholder key, so one parsed Template can be rendered many times against
// different runtime data.
//
// # Placeholder Forms
//
//	{{key}}              value of key, coerced to text
//	{{name(argKey)}}     transform "name" applied to the text of argKey
//
// Whitespace around the placeholder content is trimmed, so "{{ key }}" reads
// key; a key that itself begins or ends with spaces cannot be looked up.
// Missing keys and unregistered transforms render as the empty string.
// Parsing never fails: an unterminated placeholder is dropped, and
// "{{one}{{two}}" is a single placeholder because the end marker search is
// not reset by a second start marker.
//
// # Delimiters
//
// The default markers are "{{" and "}}". Other pairs can be supplied with
// ParseWith:
//
//	tmpl := template.ParseWith("Hello <%name%>", template.Delimiters{Start: "<%", End: "%>"})
//	out := tmpl.Render(lookup, nil)
//
// # Transforms
//
// Transform functions are registered by the host on a Transformer before any
// rendering happens and are treated as read-only afterwards.
//
//	t := template.NewTransformer().
//		Register("upper", func(s string) (string, bool) { return strings.ToUpper(s), true })
package template
