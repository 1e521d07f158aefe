package source

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/strataconf/strata/pkg/types"
)

// ConfLoader reads INI-style .conf files: optional [section] headers, flat
// key=value lines, #-prefixed comments. Section headers become one level of
// nesting; keys outside any section land at the top level. Surrounding
// quotes are stripped from values, which otherwise stay strings.
type ConfLoader struct{}

func (l *ConfLoader) Load(src types.ConfigSource) (map[string]any, error) {
	file, err := ini.Load(src.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse conf %s: %w", src.Location, err)
	}

	out := map[string]any{}
	for _, section := range file.Sections() {
		values := map[string]any{}
		for _, key := range section.Keys() {
			values[key.Name()] = stripQuotes(key.Value())
		}
		if section.Name() == ini.DefaultSection {
			for k, v := range values {
				out[k] = v
			}
			continue
		}
		if len(values) > 0 {
			out[section.Name()] = values
		}
	}
	return out, nil
}

func stripQuotes(v string) string {
	if len(v) >= 2 {
		if (strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`)) ||
			(strings.HasPrefix(v, `'`) && strings.HasSuffix(v, `'`)) {
			return v[1 : len(v)-1]
		}
	}
	return v
}
