package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/salescope-cli/internal/config"
	"github.com/KaramelBytes/salescope-cli/internal/log"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "salescope",
	Short: "salescope: exploratory analysis and model comparison for retail sales data",
	Long: `salescope loads a weekly retail sales table, inspects and cleans it, runs
statistical tests against the sales target and compares regression and
classification models on a seeded train/test split.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.salescope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	log.AddFlags(rootCmd.PersistentFlags())
}

func setup(cmd *cobra.Command, _ []string) error {
	log.Configure(cmd.Flags(), debug)
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	log.Logger().Debug("loaded config", zap.String("config", cfgFile), zap.String("target", cfg.TargetColumn))
	return nil
}
