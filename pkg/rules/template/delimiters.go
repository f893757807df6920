package template

// Default delimiter markers.
const (
	DefaultStart = "{{"
	DefaultEnd   = "}}"
)

// Delimiters bound a placeholder inside a template string.
type Delimiters struct {
	Start string
	End   string
}

// DefaultDelimiters returns the {{ }} pair.
func DefaultDelimiters() Delimiters {
	return Delimiters{Start: DefaultStart, End: DefaultEnd}
}

// orDefault returns d, or the default pair if either marker is empty.
func (d Delimiters) orDefault() Delimiters {
	if d.Start == "" || d.End == "" {
		return DefaultDelimiters()
	}
	return d
}
