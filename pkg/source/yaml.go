package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strataconf/strata/pkg/types"
)

// YAMLLoader reads a generic nested mapping from a YAML file
type YAMLLoader struct{}

func (l *YAMLLoader) Load(src types.ConfigSource) (map[string]any, error) {
	data, err := os.ReadFile(src.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Location, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", src.Location, err)
	}
	return normalizeMap(doc), nil
}
