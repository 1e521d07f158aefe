package source

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/strataconf/strata/pkg/types"
)

// JSONLoader reads a generic nested mapping from a JSON file
type JSONLoader struct{}

func (l *JSONLoader) Load(src types.ConfigSource) (map[string]any, error) {
	data, err := os.ReadFile(src.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Location, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON %s: %w", src.Location, err)
	}
	return normalizeMap(doc), nil
}
