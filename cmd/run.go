package cmd

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salescope-cli/internal/pipeline"
	"github.com/KaramelBytes/salescope-cli/internal/utils"
)

var (
	runLoad       loadFlags
	runTarget     string
	runTestSize   float64
	runSeed       uint64
	runPlotsDir   string
	runNoPlots    bool
	runOutputPath string
	runProgress   bool
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the full analysis and modeling pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		f := cmd.Flags()
		if f.Changed("target") {
			c.RequiredColumns = retarget(c.RequiredColumns, c.TargetColumn, runTarget)
			c.TargetColumn = runTarget
		}
		if f.Changed("test-size") {
			c.TestSize = runTestSize
		}
		if f.Changed("seed") {
			c.RandomSeed = runSeed
		}
		if err := c.Validate(); err != nil {
			return err
		}
		loadOpt, err := runLoad.options(c.Delimiter)
		if err != nil {
			return err
		}
		opt := pipeline.Options{Config: &c, Load: loadOpt, PlotsDir: runPlotsDir, NoPlots: runNoPlots}
		if runProgress {
			opt.Progress = cmd.ErrOrStderr()
		}
		res, err := pipeline.Run(args[0], opt)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := res.Render(&buf); err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return err
		}
		if runOutputPath != "" {
			if err := utils.SafeWriteFile(runOutputPath, buf.Bytes()); err != nil {
				return errors.Wrap(err, "write output")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", runOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runLoad.register(runCmd)
	runCmd.Flags().StringVar(&runTarget, "target", "", "target column (overrides config)")
	runCmd.Flags().Float64Var(&runTestSize, "test-size", 0.3, "fraction of rows held out for testing")
	runCmd.Flags().Uint64Var(&runSeed, "seed", 42, "random seed of the train/test split")
	runCmd.Flags().StringVar(&runPlotsDir, "plots-dir", "", "directory for PNG plots (default plots/<run-id>)")
	runCmd.Flags().BoolVar(&runNoPlots, "no-plots", false, "skip writing plots")
	runCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "also write the report to this file")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "show boosting progress on stderr")
}

// retarget replaces the previous target in the required column list.
func retarget(required []string, previous, target string) []string {
	return lo.Uniq(lo.Map(required, func(col string, _ int) string {
		if col == previous {
			return target
		}
		return col
	}))
}
