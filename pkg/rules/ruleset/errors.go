package ruleset

import (
	"errors"
	"fmt"
)

// ErrNoRuleset is returned by Engine.Evaluate before any ruleset has loaded.
var ErrNoRuleset = errors.New("no ruleset loaded")

// LoadError is returned when a rule source cannot be read or parsed.
type LoadError struct {
	// Path is the file or directory that failed to load.
	Path string

	// Message describes the error.
	Message string

	// Cause is the underlying error. For documents with invalid rules it
	// joins every RuleError found.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load rules from %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load rules from %q: %s", e.Path, e.Message)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// RuleError locates a problem in a rule document.
type RuleError struct {
	File    string
	RuleID  string
	Line    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	msg := formatLocation(e.File, e.RuleID, e.Line) + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuleError) Unwrap() error {
	return e.Cause
}

// ReloadError is returned when a reload fails. The previous ruleset stays
// active.
type ReloadError struct {
	Source string
	Cause  error
}

// Error implements the error interface.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("rules reload from %s failed: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReloadError) Unwrap() error {
	return e.Cause
}

func formatLocation(file, ruleID string, line int) string {
	loc := ""
	switch {
	case file != "" && line > 0:
		loc = fmt.Sprintf("%s:%d: ", file, line)
	case file != "":
		loc = file + ": "
	case line > 0:
		loc = fmt.Sprintf("line %d: ", line)
	}
	if ruleID != "" {
		loc += fmt.Sprintf("rule %q: ", ruleID)
	}
	return loc
}
