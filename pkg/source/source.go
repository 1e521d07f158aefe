package source

import (
	"fmt"
	"os"

	"github.com/strataconf/strata/pkg/types"
)

// Loader loads one configuration source into a generic nested mapping.
// Every mapping level uses string keys so results feed straight into the
// merge engine.
type Loader interface {
	Load(src types.ConfigSource) (map[string]any, error)
}

// ForFormat returns the loader responsible for a source format
func ForFormat(format types.SourceFormat) (Loader, error) {
	switch format {
	case types.FormatEnv:
		return &EnvLoader{}, nil
	case types.FormatYAML:
		return &YAMLLoader{}, nil
	case types.FormatJSON:
		return &JSONLoader{}, nil
	case types.FormatConf:
		return &ConfLoader{}, nil
	default:
		return nil, fmt.Errorf("no loader for format %q", format)
	}
}

// Exists reports whether the source's backing location is present.
// Environment sources always exist; file sources require the file on disk.
func Exists(src types.ConfigSource) bool {
	if src.Format == types.FormatEnv {
		return true
	}
	if src.Location == "" {
		return false
	}
	_, err := os.Stat(src.Location)
	return err == nil
}

// normalize rewrites decoded structures so that every nested mapping is a
// map[string]any. yaml.v3 already produces string-keyed maps for string
// keys, but decoded documents can still carry map[any]any in edge cases.
func normalize(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[fmt.Sprintf("%v", k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, elem := range typed {
			out[i] = normalize(elem)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out, _ := normalize(m).(map[string]any)
	return out
}
