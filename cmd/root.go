package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/paleofauna/crabstat/internal/config"
)

var (
	// Global flags (wired to config/viper)
	cfgFile string
	debug   bool

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "crabstat",
	Short: "crabstat: reproducible crab morphometry and isotope analyses",
	Long: `crabstat reruns the statistical pipeline behind the wadi crab
assemblage study: treatment-effect check, dactyl-to-carapace size
estimation, missing-dactyl imputation, and the isotope correlation and
comparison suite.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(initRun)
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.crabstat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initRun() {
	var err error
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to build logger: %v\n", err)
		logger = zap.NewNop()
	}

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// requireConfig guards commands that cannot run without a loaded config.
func requireConfig() error {
	if cfg == nil {
		return fmt.Errorf("configuration not loaded; run 'crabstat config init' or pass --config")
	}
	return nil
}
