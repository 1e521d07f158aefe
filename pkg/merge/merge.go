package merge

import (
	"strconv"
	"strings"
)

// Deep merges override into base and returns the result. For each key in
// override: if both sides hold mappings, recurse; otherwise the override
// value wins outright. Lists replace wholesale, never concatenate. This is
// not a three-way merge; the override side always wins conflicts.
//
// base is not mutated; the returned mapping shares no structure with either
// input.
func Deep(base, override map[string]any) map[string]any {
	out := DeepCopy(base)
	for key, value := range override {
		existing, ok := out[key]
		if ok {
			existingMap, existingIsMap := existing.(map[string]any)
			overrideMap, overrideIsMap := value.(map[string]any)
			if existingIsMap && overrideIsMap {
				out[key] = Deep(existingMap, overrideMap)
				continue
			}
		}
		out[key] = copyValue(value)
	}
	return out
}

// DeepCopy returns a copy of m sharing no mutable structure with the input
func DeepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return DeepCopy(typed)
	case []any:
		out := make([]any, len(typed))
		for i, elem := range typed {
			out[i] = copyValue(elem)
		}
		return out
	default:
		return v
	}
}

// ExpandDotted turns a dotted key path and value into a nested mapping:
// ("a.b.c", 5) becomes {"a": {"b": {"c": 5}}}. Sibling keys are preserved
// by merging the result, not by this function.
func ExpandDotted(key string, value any) map[string]any {
	parts := strings.Split(key, ".")
	out := map[string]any{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		out = map[string]any{parts[i]: out}
	}
	return out
}

// Coerce converts an environment-sourced string to a typed value. Boolean
// parse ("true"/"false" case-insensitive) is attempted before integer parse
// (all-digit strings, optional leading minus) before float parse, falling
// back to the raw string.
func Coerce(raw string) any {
	switch strings.ToLower(raw) {
	case "true":
		return true
	case "false":
		return false
	}
	if isDigits(raw) {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func isDigits(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
