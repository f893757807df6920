package template

import "strings"

// Template is a parsed placeholder-bearing string. It is immutable and safe
// for concurrent rendering.
type Template struct {
	source     string
	delimiters Delimiters
	segments   []Segment
}

// Parse parses source with the default delimiters.
func Parse(source string) *Template {
	return ParseWith(source, DefaultDelimiters())
}

// ParseWith parses source with the given delimiters.
func ParseWith(source string, delims Delimiters) *Template {
	delims = delims.orDefault()
	return &Template{
		source:     source,
		delimiters: delims,
		segments:   ParseSegments(source, delims),
	}
}

// Source returns the string the template was parsed from.
func (t *Template) Source() string { return t.source }

// Delimiters returns the delimiter pair used for parsing.
func (t *Template) Delimiters() Delimiters { return t.delimiters }

// Segments returns a copy of the parsed segments.
func (t *Template) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Tokens returns the placeholder segments in source order.
func (t *Template) Tokens() []TokenSegment {
	var tokens []TokenSegment
	for _, seg := range t.segments {
		if tok, ok := seg.(TokenSegment); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// HasTokens reports whether the template contains at least one placeholder.
func (t *Template) HasTokens() bool {
	for _, seg := range t.segments {
		if _, ok := seg.(TokenSegment); ok {
			return true
		}
	}
	return false
}

// Render concatenates the content of every segment in order.
func (t *Template) Render(lookup Lookup, transformer *Transformer) string {
	var sb strings.Builder
	sb.Grow(len(t.source))
	for _, seg := range t.segments {
		sb.WriteString(seg.Content(lookup, transformer))
	}
	return sb.String()
}

// Render parses source with the default delimiters and renders it once.
func Render(source string, lookup Lookup, transformer *Transformer) string {
	return Parse(source).Render(lookup, transformer)
}
