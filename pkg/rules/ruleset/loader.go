package ruleset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"mercator-hq/rulekit/pkg/config"
	"mercator-hq/rulekit/pkg/rules/condition"
	"mercator-hq/rulekit/pkg/rules/template"
)

// LoaderConfig contains settings applied to every document a Loader reads.
type LoaderConfig struct {
	// CaseSensitivity is used by documents that do not set case_sensitivity.
	CaseSensitivity condition.CaseSensitivity

	// Delimiters are used by documents that do not set delimiters.
	Delimiters template.Delimiters

	// MaxFileSize is the largest document accepted, in bytes.
	MaxFileSize int64

	// MaxDepth limits condition nesting.
	MaxDepth int

	// Extensions are the file extensions read from a directory.
	Extensions []string
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		CaseSensitivity: condition.CaseSensitive,
		Delimiters:      template.DefaultDelimiters(),
		MaxFileSize:     10 * 1024 * 1024,
		MaxDepth:        32,
		Extensions:      []string{".yaml", ".yml"},
	}
}

// LoaderConfigFrom builds a LoaderConfig from the rules configuration.
func LoaderConfigFrom(cfg *config.RulesConfig) *LoaderConfig {
	lc := DefaultLoaderConfig()
	if cfg.CaseInsensitive {
		lc.CaseSensitivity = condition.CaseInsensitive
	}
	if cfg.Delimiters.Start != "" && cfg.Delimiters.End != "" {
		lc.Delimiters = template.Delimiters{Start: cfg.Delimiters.Start, End: cfg.Delimiters.End}
	}
	return lc
}

// Loader reads rule documents. Function operands refer to blocks registered
// on the loader by name; an unregistered name is a load error.
type Loader struct {
	config *LoaderConfig

	mu        sync.RWMutex
	functions map[string]condition.FunctionBlock
}

// NewLoader creates a loader. A nil config uses DefaultLoaderConfig.
func NewLoader(cfg *LoaderConfig) *Loader {
	if cfg == nil {
		cfg = DefaultLoaderConfig()
	}
	return &Loader{
		config:    cfg,
		functions: make(map[string]condition.FunctionBlock),
	}
}

// RegisterFunction makes block available to function operands as name.
// A later registration under the same name replaces the earlier one.
func (l *Loader) RegisterFunction(name string, block condition.FunctionBlock) *Loader {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.functions[name] = block
	return l
}

// Load reads a single document, or every document in a directory.
func (l *Loader) Load(path string) (*Ruleset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to access path", Cause: err}
	}
	if info.IsDir() {
		return l.LoadDir(path)
	}
	return l.LoadFile(path)
}

// LoadFile reads and parses one document.
func (l *Loader) LoadFile(path string) (*Ruleset, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}
	return l.Parse(data, path)
}

// LoadDir reads every document in dir, recursively, skipping hidden files
// and directories. Rules are merged in path order; the first document names
// the ruleset. Rule IDs must be unique across documents.
func (l *Loader) LoadDir(dir string) (*Ruleset, error) {
	files, err := l.listFiles(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: "failed to list rule files", Cause: err}
	}
	if len(files) == 0 {
		return nil, &LoadError{Path: dir, Message: "no rule files found"}
	}

	var merged *Ruleset
	origin := make(map[string]*Rule)
	var errs []error

	for _, file := range files {
		rs, err := l.LoadFile(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules := rs.Rules
		if merged == nil {
			merged = rs
			merged.Source = dir
			merged.Rules = nil
		} else {
			merged.Warnings = append(merged.Warnings, rs.Warnings...)
		}

		for _, rule := range rules {
			if prev, ok := origin[rule.ID]; ok {
				errs = append(errs, &RuleError{
					File:    rule.File,
					RuleID:  rule.ID,
					Line:    rule.Line,
					Message: fmt.Sprintf("duplicate rule id, first defined at %s:%d", prev.File, prev.Line),
				})
				continue
			}
			origin[rule.ID] = rule
			merged.Rules = append(merged.Rules, rule)
		}
	}

	if len(errs) > 0 {
		return nil, &LoadError{Path: dir, Message: "invalid rule documents", Cause: errors.Join(errs...)}
	}
	return merged, nil
}

// Parse builds a ruleset from document bytes. source names the document in
// errors and warnings.
func (l *Loader) Parse(data []byte, source string) (*Ruleset, error) {
	if int64(len(data)) > l.config.MaxFileSize {
		return nil, &LoadError{
			Path:    source,
			Message: fmt.Sprintf("document size %d bytes exceeds maximum %d bytes", len(data), l.config.MaxFileSize),
		}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{Path: source, Message: "document contains invalid UTF-8"}
	}

	doc, err := parseDocument(data)
	if err != nil {
		return nil, &LoadError{Path: source, Message: "YAML parsing failed", Cause: err}
	}

	sensitivity := l.config.CaseSensitivity
	if doc.CaseSensitivity != "" {
		sensitivity, err = condition.ParseCaseSensitivity(doc.CaseSensitivity)
		if err != nil {
			return nil, &LoadError{Path: source, Message: "invalid case_sensitivity", Cause: err}
		}
	}

	delims := l.config.Delimiters
	if doc.Delimiters != nil {
		if doc.Delimiters.Start == "" || doc.Delimiters.End == "" {
			return nil, &LoadError{Path: source, Message: "delimiters need both start and end"}
		}
		delims = template.Delimiters{Start: doc.Delimiters.Start, End: doc.Delimiters.End}
	}

	b := &builder{
		file:      source,
		delims:    delims,
		evaluator: condition.NewEvaluator(sensitivity),
		functions: l.snapshotFunctions(),
		maxDepth:  l.config.MaxDepth,
	}

	rs := &Ruleset{
		Name:     doc.Name,
		Version:  doc.Version,
		Source:   source,
		Rules:    make([]*Rule, 0, len(doc.Rules)),
		LoadedAt: time.Now(),
	}
	if rs.Name == "" {
		rs.Name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	seen := make(map[string]int, len(doc.Rules))
	for i := range doc.Rules {
		rule := b.buildRule(&doc.Rules[i], i)
		if rule == nil {
			continue
		}
		if first, dup := seen[rule.ID]; dup {
			b.errs = append(b.errs, &RuleError{
				File:    source,
				RuleID:  rule.ID,
				Line:    rule.Line,
				Message: fmt.Sprintf("duplicate rule id, first defined at line %d", first),
			})
			continue
		}
		seen[rule.ID] = rule.Line
		rs.Rules = append(rs.Rules, rule)
	}

	if len(b.errs) > 0 {
		return nil, &LoadError{Path: source, Message: "invalid rules", Cause: errors.Join(b.errs...)}
	}
	rs.Warnings = b.warnings
	return rs, nil
}

func (l *Loader) snapshotFunctions() map[string]condition.FunctionBlock {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]condition.FunctionBlock, len(l.functions))
	for k, v := range l.functions {
		out[k] = v
	}
	return out
}

func (l *Loader) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Path: path, Message: "file not found", Cause: err}
		}
		if os.IsPermission(err) {
			return nil, &LoadError{Path: path, Message: "permission denied", Cause: err}
		}
		return nil, &LoadError{Path: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{Path: path, Message: "not a regular file"}
	}
	if info.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			Path:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}
	return data, nil
}

func (l *Loader) listFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && l.hasExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func (l *Loader) hasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range l.config.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
