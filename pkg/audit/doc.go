// Package audit defines the audit trail of rule evaluations.
//
// Every rule outcome of an evaluation can be kept as a Record: which rule
// ran, whether it matched, the failure kind and message when it did not, and
// the rendered consequences when it did. Records are written by the
// recorder subpackage, kept by a Storage backend from the storage
// subpackage, pruned by retention and written out by export.
//
// Errors from the subpackages are typed (StorageError, QueryError,
// RetentionError, ExportError) and wrap their cause, so errors.Is and
// errors.As work through them.
package audit
