package ruleset

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the top level of a rule document. Rules are kept as nodes
// so each rule can be decoded with its own line number.
type yamlDocument struct {
	Version         string          `yaml:"version"`
	Name            string          `yaml:"name"`
	CaseSensitivity string          `yaml:"case_sensitivity"`
	Delimiters      *yamlDelimiters `yaml:"delimiters"`
	Rules           []yaml.Node     `yaml:"rules"`
}

type yamlDelimiters struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type yamlRule struct {
	ID           string            `yaml:"id"`
	Description  string            `yaml:"description"`
	Enabled      *bool             `yaml:"enabled"` // nil means enabled
	Condition    yaml.Node         `yaml:"condition"`
	Consequences []yamlConsequence `yaml:"consequences"`
}

type yamlConsequence struct {
	ID     string            `yaml:"id"`
	Type   string            `yaml:"type"`
	Detail map[string]string `yaml:"detail"`
}

var knownRuleKeys = map[string]bool{
	"id":           true,
	"description":  true,
	"enabled":      true,
	"condition":    true,
	"consequences": true,
}

// parseDocument decodes data into the intermediate document structure.
func parseDocument(data []byte) (*yamlDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	var doc yamlDocument
	if err := root.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// mappingFields returns the key/value pairs of a mapping node. Later
// duplicates win.
func mappingFields(node *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		fields[node.Content[i].Value] = node.Content[i+1]
	}
	return fields
}

// resolveAlias follows YAML aliases to the anchored node.
func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// scalarValue decodes a scalar node into a Go value: string, int, float64,
// bool or nil.
func scalarValue(node *yaml.Node) (interface{}, error) {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case nil, string, int, float64, bool:
		return v, nil
	default:
		return node.Value, nil
	}
}
