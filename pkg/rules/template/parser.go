package template

import "strings"

// ParseSegments scans source into an ordered list of segments.
//
// Text between placeholders becomes a TextSegment; the span between a start
// marker and the nearest following end marker becomes a TokenSegment. The
// search for the end marker is not reset by another start marker, so
// "{{one}{{two}}" yields a single token with key "one}{{two". A start marker
// with no end marker after it is dropped together with the rest of the input.
// An empty source yields an empty list.
func ParseSegments(source string, delims Delimiters) []Segment {
	if source == "" {
		return []Segment{}
	}
	delims = delims.orDefault()

	segments := make([]Segment, 0, 4)
	rest := source
	for len(rest) > 0 {
		start := strings.Index(rest, delims.Start)
		if start < 0 {
			segments = append(segments, TextSegment{Raw: rest})
			break
		}
		if start > 0 {
			segments = append(segments, TextSegment{Raw: rest[:start]})
		}

		afterStart := rest[start+len(delims.Start):]
		end := strings.Index(afterStart, delims.End)
		if end < 0 {
			// dangling start marker
			break
		}

		segments = append(segments, TokenSegment{Inner: afterStart[:end]})
		rest = afterStart[end+len(delims.End):]
	}

	return segments
}
