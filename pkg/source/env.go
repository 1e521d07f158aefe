package source

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/strataconf/strata/pkg/merge"
	"github.com/strataconf/strata/pkg/types"
)

// EnvLoader builds a mapping from process environment variables using the
// source's fixed EnvVars table. Variables absent from the table are ignored.
// Values are type-coerced (bool, then int, then float, then string) and
// dotted key paths are expanded into nested mappings.
type EnvLoader struct {
	// DotenvPath optionally names a .env file whose entries act as a
	// fallback for variables unset in the process environment. The process
	// environment always wins.
	DotenvPath string
}

func (l *EnvLoader) Load(src types.ConfigSource) (map[string]any, error) {
	var dotenv map[string]string
	if l.DotenvPath != "" {
		if _, err := os.Stat(l.DotenvPath); err == nil {
			parsed, err := godotenv.Read(l.DotenvPath)
			if err != nil {
				return nil, err
			}
			dotenv = parsed
		}
	}

	out := map[string]any{}
	for envVar, dottedKey := range src.EnvVars {
		raw, ok := os.LookupEnv(envVar)
		if !ok || raw == "" {
			raw, ok = dotenv[envVar]
			if !ok || raw == "" {
				continue
			}
		}
		expanded := merge.ExpandDotted(dottedKey, merge.Coerce(raw))
		out = merge.Deep(out, expanded)
	}
	return out, nil
}
