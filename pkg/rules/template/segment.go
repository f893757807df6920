package template

// Segment is one piece of a parsed template.
type Segment interface {
	// Content renders the segment against lookup and transformer.
	Content(lookup Lookup, transformer *Transformer) string
}

// TextSegment is literal text copied to the output unchanged.
type TextSegment struct {
	Raw string
}

// Content returns the literal text.
func (s TextSegment) Content(Lookup, *Transformer) string {
	return s.Raw
}

// TokenSegment is a placeholder; Inner is the text between the delimiters.
type TokenSegment struct {
	Inner string
}

// Token parses the placeholder content.
func (s TokenSegment) Token() Token {
	return ParseToken(s.Inner)
}

// Content resolves the placeholder and coerces the result to text. Absent
// values render as the empty string.
func (s TokenSegment) Content(lookup Lookup, transformer *Transformer) string {
	return s.Token().Resolve(lookup, transformer).String()
}
