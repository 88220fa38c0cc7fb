package storage

import (
	"encoding/json"
	"fmt"

	"tally/internal/core"
)

func encodeDefinitions(defs []core.CustomSummaryDefinition) (string, error) {
	if defs == nil {
		defs = []core.CustomSummaryDefinition{}
	}
	b, err := json.Marshal(defs)
	if err != nil {
		return "", fmt.Errorf("encode definitions: %w", err)
	}
	return string(b), nil
}

func decodeDefinitions(raw []byte) ([]core.CustomSummaryDefinition, error) {
	defs := []core.CustomSummaryDefinition{}
	if len(raw) == 0 {
		return defs, nil
	}
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}
	return defs, nil
}
