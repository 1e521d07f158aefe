package topology

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/strataconf/strata/pkg/types"
)

// Default returns the built-in namespace topology rooted at configDir.
// Each namespace layers an environment source over the integrated YAML and
// JSON files and a legacy .conf file, with defaults as the floor.
func Default(configDir string) []types.Namespace {
	return []types.Namespace{
		namespace(configDir, "claude",
			map[string]string{
				"ANTHROPIC_API_KEY":    "api_key",
				"CLAUDE_MODEL":         "model",
				"CLAUDE_MAX_TOKENS":    "max_tokens",
				"CLAUDE_API_KEY_ROTATION_ENABLED": "api_key_rotation.enabled",
			},
			map[string]any{
				"model":      "claude-3-5-sonnet-latest",
				"max_tokens": 4096,
			}),
		namespace(configDir, "slack",
			map[string]string{
				"SLACK_BOT_TOKEN":      "bot_token",
				"SLACK_APP_TOKEN":      "app_token",
				"SLACK_DEFAULT_CHANNEL": "default_channel",
			},
			map[string]any{
				"default_channel": "#general",
			}),
		namespace(configDir, "github",
			map[string]string{
				"GITHUB_TOKEN":    "token",
				"GITHUB_ORG":      "org",
				"GITHUB_API_BASE": "api_base",
			},
			map[string]any{
				"api_base": "https://api.github.com",
			}),
		namespace(configDir, "database",
			map[string]string{
				"DATABASE_HOST":     "host",
				"DATABASE_PORT":     "port",
				"DATABASE_NAME":     "name",
				"DATABASE_USER":     "user",
				"DATABASE_PASSWORD": "password",
				"DEBUG":             "debug",
			},
			map[string]any{
				"host":  "localhost",
				"port":  5432,
				"debug": false,
			}),
	}
}

func namespace(configDir, name string, envVars map[string]string, defaults map[string]any) types.Namespace {
	return types.Namespace{
		Name:     name,
		Defaults: defaults,
		Sources: []types.ConfigSource{
			{
				Name:     name + "-env",
				Priority: types.PriorityEnv,
				Format:   types.FormatEnv,
				EnvVars:  envVars,
			},
			{
				Name:     name + "-yaml",
				Location: filepath.Join(configDir, "integrated", name+".yaml"),
				Priority: types.PriorityYAML,
				Format:   types.FormatYAML,
			},
			{
				Name:     name + "-json",
				Location: filepath.Join(configDir, "integrated", name+".json"),
				Priority: types.PriorityJSON,
				Format:   types.FormatJSON,
			},
			{
				Name:     name + "-conf",
				Location: filepath.Join(configDir, name+".conf"),
				Priority: types.PriorityConf,
				Format:   types.FormatConf,
			},
		},
	}
}

// File schema for a declarative topology document
type fileTopology struct {
	Namespaces []fileNamespace `yaml:"namespaces"`
}

type fileNamespace struct {
	Name     string         `yaml:"name"`
	Defaults map[string]any `yaml:"defaults"`
	Sources  []fileSource   `yaml:"sources"`
}

type fileSource struct {
	Name     string            `yaml:"name"`
	Location string            `yaml:"location"`
	Format   string            `yaml:"format"`
	Required bool              `yaml:"required"`
	EnvVars  map[string]string `yaml:"env_vars"`
}

var formatPriorities = map[types.SourceFormat]types.Priority{
	types.FormatEnv:  types.PriorityEnv,
	types.FormatYAML: types.PriorityYAML,
	types.FormatJSON: types.PriorityJSON,
	types.FormatConf: types.PriorityConf,
}

// LoadFile reads a declarative topology document. Relative source locations
// are resolved against configDir. Source priority follows the format; the
// declaration order never matters.
func LoadFile(path, configDir string) ([]types.Namespace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file: %w", err)
	}

	var doc fileTopology
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse topology file: %w", err)
	}

	var namespaces []types.Namespace
	for _, ns := range doc.Namespaces {
		if ns.Name == "" {
			return nil, fmt.Errorf("topology namespace missing name")
		}
		out := types.Namespace{
			Name:     ns.Name,
			Defaults: ns.Defaults,
		}
		for _, src := range ns.Sources {
			format := types.SourceFormat(src.Format)
			priority, ok := formatPriorities[format]
			if !ok {
				return nil, fmt.Errorf("namespace %s: unknown source format %q", ns.Name, src.Format)
			}
			location := src.Location
			if location != "" && !filepath.IsAbs(location) {
				location = filepath.Join(configDir, location)
			}
			out.Sources = append(out.Sources, types.ConfigSource{
				Name:     src.Name,
				Location: location,
				Priority: priority,
				Format:   format,
				Required: src.Required,
				EnvVars:  src.EnvVars,
			})
		}
		namespaces = append(namespaces, out)
	}
	return namespaces, nil
}
