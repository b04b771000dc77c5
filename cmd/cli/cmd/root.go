// Package cmd provides the CLI commands for pricing-engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pricing-engine/adapters/storage"
	"pricing-engine/core/engine"
	"pricing-engine/internal/config"
	"pricing-engine/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Evaluate pricing strategies against product configurations",
	Long: `pricing turns a product configuration into an itemized price.

A catalog of pricing nodes gives every input path a cost; a strategy is an
ordered list of steps that combine those costs into a final price with a
step-by-step breakdown.

Examples:
  pricing calculate --nodes catalog.json --strategy strategy.yaml --inputs inputs.json
  pricing calculate --request request.hcl --format markdown
  pricing catalog put print catalog.yaml
  pricing calculate --catalog print --strategy-name default --inputs inputs.json --save`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pricing-engine/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// newEngine builds an engine from the active configuration
func newEngine() *engine.Engine {
	cfg := config.Get()
	precision := cfg.Engine.DisplayPrecision
	return engine.NewEngine(engine.Config{
		Logger:           logging.Component("engine"),
		DisplayPrecision: &precision,
	})
}

// openStore opens the configured document store
func openStore() (storage.Store, error) {
	cfg := config.Get()
	return storage.StoreFactory(storage.Backend(cfg.Storage.Backend), map[string]string{
		"path": cfg.Storage.Path,
	})
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pricing-engine version %s\n", engine.Version)
	},
}

var configForce bool

// configCmd manages configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// configShowCmd prints the active configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Get().Marshal("config.yaml")
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// configInitCmd writes a default configuration file
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}
