// Package lookup provides template.Lookup implementations over the data a
// host typically has at hand: nested maps (Map), decoded JSON or YAML
// documents addressed by JSONPath (Document), and ordered fallbacks (Chain).
//
// All lookups are read-only after construction and safe for concurrent use.
package lookup
