package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/strataconf/strata/pkg/log"
	"github.com/strataconf/strata/pkg/resolver"
	"github.com/strataconf/strata/pkg/topology"
	"github.com/strataconf/strata/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configDir    string
	topologyFile string
	verbose      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata - layered configuration resolver",
	Long: `Strata resolves namespaced configuration by merging layered sources
in priority order: environment > YAML > JSON > conf > defaults.

Results are cached with a five-minute TTL and can be invalidated by an
optional file watcher.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		log.Init(log.Config{Level: level})
	},
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Strata version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config", "Configuration directory")
	rootCmd.PersistentFlags().StringVar(&topologyFile, "topology", "", "Topology YAML file (default: built-in topology)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(namespacesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

// buildResolver constructs the resolver every subcommand shares. The
// resolver is created here and passed down; no package keeps one globally.
func buildResolver(opts ...resolver.Option) (*resolver.Resolver, error) {
	namespaces, err := loadTopology()
	if err != nil {
		return nil, err
	}

	res := resolver.New(opts...)
	for _, ns := range namespaces {
		res.Register(ns)
	}
	return res, nil
}

func loadTopology() ([]types.Namespace, error) {
	if topologyFile != "" {
		return topology.LoadFile(topologyFile, configDir)
	}
	return topology.Default(configDir), nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [namespace]",
	Short: "Resolve a namespace and print the merged configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		output, _ := cmd.Flags().GetString("output")

		res, err := buildResolver()
		if err != nil {
			return err
		}
		defer res.Close()

		var values map[string]any
		if force {
			values, err = res.GetForce(args[0])
		} else {
			values, err = res.Get(args[0])
		}
		if err != nil {
			return err
		}

		switch output {
		case "yaml":
			data, err := yaml.Marshal(values)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
		case "json":
			data, err := json.MarshalIndent(values, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		default:
			return fmt.Errorf("unknown output format %q", output)
		}
		return nil
	},
}

var namespacesCmd = &cobra.Command{
	Use:   "namespaces",
	Short: "List registered namespaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := buildResolver()
		if err != nil {
			return err
		}
		defer res.Close()

		for _, name := range res.Namespaces() {
			ns, _ := res.Namespace(name)
			fmt.Printf("%s\t(%d sources)\n", name, len(ns.Sources))
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().Bool("force", false, "Bypass the cache and rebuild")
	resolveCmd.Flags().StringP("output", "o", "yaml", "Output format: yaml or json")
}
