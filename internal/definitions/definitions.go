// Package definitions reads custom summary definitions from YAML files.
//
// A file is either a list of definitions or a mapping with a "summaries" key:
//
//	summaries:
//	  - name: Consulting
//	    reason_matches: [consulting, advisory]
//	    from_matches: [ACME]
//	    date_start: 2025-01-01
//	    track_time: true
package definitions

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tally/internal/core"
)

type document struct {
	Summaries []core.CustomSummaryDefinition `yaml:"summaries"`
}

// LoadFile reads and parses the YAML file at path.
func LoadFile(path string) ([]core.CustomSummaryDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions file: %w", err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Parse decodes definitions, assigns ids to entries without one and validates
// each entry. Duplicate ids are rejected.
func Parse(data []byte) ([]core.CustomSummaryDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.CustomSummaryDefinition{}, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	var defs []core.CustomSummaryDefinition
	if len(root.Content) > 0 && root.Content[0].Kind == yaml.SequenceNode {
		if err := root.Content[0].Decode(&defs); err != nil {
			return nil, fmt.Errorf("decode definitions: %w", err)
		}
	} else {
		var doc document
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode definitions: %w", err)
		}
		defs = doc.Summaries
	}

	seen := make(map[string]bool, len(defs))
	for i := range defs {
		defs[i].EnsureID()
		if err := defs[i].Validate(); err != nil {
			return nil, fmt.Errorf("definition %d (%q): %w", i+1, defs[i].Name, err)
		}
		if seen[defs[i].ID] {
			return nil, fmt.Errorf("definition %d: duplicate id %q", i+1, defs[i].ID)
		}
		seen[defs[i].ID] = true
	}
	if defs == nil {
		defs = []core.CustomSummaryDefinition{}
	}
	return defs, nil
}

// Marshal renders defs in the mapping form Parse accepts.
func Marshal(defs []core.CustomSummaryDefinition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document{Summaries: defs}); err != nil {
		return nil, fmt.Errorf("encode definitions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode definitions: %w", err)
	}
	return buf.Bytes(), nil
}
