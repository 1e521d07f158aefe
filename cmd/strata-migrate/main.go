package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strataconf/strata/pkg/log"
	"github.com/strataconf/strata/pkg/migrate"
	"github.com/strataconf/strata/pkg/resolver"
	"github.com/strataconf/strata/pkg/topology"
	"github.com/strataconf/strata/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
)

var (
	configDir    string
	topologyFile string
	phase        string
	dryRun       bool
	rollback     bool
	validate     bool
	verbose      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "strata-migrate",
	Short: "Strata configuration migration tool",
	Long: `Migrate legacy scattered config files into the namespaced layout.

Phases:
  phase1  Back up existing configs, merge duplicated legacy files
  phase2  Split by environment, install validation
  phase3  Enable dynamic reload and audit logging

Each phase persists its state; a failed step moves the state machine to
failed with the original error preserved. --rollback restores the files
captured by the most recent backup manifest.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&phase, "phase", "all", "Migration phase to run: phase1, phase2, phase3, or all")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print planned actions without writing anything")
	rootCmd.Flags().BoolVar(&rollback, "rollback", false, "Restore files from the latest backup manifest")
	rootCmd.Flags().BoolVar(&validate, "validate", false, "Validate the migrated configuration and exit")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&configDir, "config-dir", "config", "Configuration directory")
	rootCmd.Flags().StringVar(&topologyFile, "topology", "", "Topology YAML file (default: built-in topology)")
}

func run(cmd *cobra.Command, args []string) error {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	log.Init(log.Config{Level: level})

	res := resolver.New()
	namespaces, err := loadTopology()
	if err != nil {
		return err
	}
	for _, ns := range namespaces {
		res.Register(ns)
	}
	defer res.Close()

	opts := []migrate.Option{migrate.WithVersion(Version)}
	if dryRun {
		opts = append(opts, migrate.WithDryRun())
	}
	controller, err := migrate.New(configDir, res, opts...)
	if err != nil {
		return err
	}

	switch {
	case rollback:
		if err := controller.Rollback(); err != nil {
			return err
		}
		fmt.Println("✓ Rollback completed")
		return nil

	case validate:
		if !controller.Validate() {
			return fmt.Errorf("validation failed, see log for details")
		}
		fmt.Println("✓ Configuration is valid")
		return nil

	default:
		if err := controller.Run(phase); err != nil {
			return err
		}
		if dryRun {
			fmt.Println("Dry run completed. No changes made.")
			fmt.Println("Run without --dry-run to perform the migration.")
		} else {
			fmt.Println("✓ Migration completed successfully!")
			fmt.Printf("  State: %s\n", controller.State().Phase)
			fmt.Printf("  Backup session: %s\n", controller.Session())
		}
		return nil
	}
}

func loadTopology() ([]types.Namespace, error) {
	if topologyFile != "" {
		return topology.LoadFile(topologyFile, configDir)
	}
	return topology.Default(configDir), nil
}
