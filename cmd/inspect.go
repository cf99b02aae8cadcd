package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salescope-cli/internal/analysis"
	"github.com/KaramelBytes/salescope-cli/internal/dataset"
	"github.com/KaramelBytes/salescope-cli/internal/log"
	"github.com/KaramelBytes/salescope-cli/internal/utils"
)

var (
	insLoad       loadFlags
	insOutputPath string
	insSampleRows int
	insGroupBy    string
	insNoCorr     bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Summarize a CSV/TSV/XLSX table without modeling",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		loadOpt, err := insLoad.options(cfg.Delimiter)
		if err != nil {
			return err
		}
		t, err := dataset.Load(path, loadOpt)
		if err != nil {
			return errors.Wrapf(err, "load %s", path)
		}
		opt := analysis.DefaultOptions()
		opt.SampleRows = cfg.SampleRows
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = insSampleRows
		}
		opt.IQRMultiplier = cfg.IQRMultiplier
		opt.Correlations = !insNoCorr
		if insGroupBy != "" {
			if err := t.Require(insGroupBy); err != nil {
				return err
			}
			opt.GroupBy, opt.GroupTarget = insGroupBy, cfg.TargetColumn
		}
		md := analysis.Summarize(t, opt).Markdown()
		log.Logger().Debug("inspected dataset", zap.String("path", path), zap.Int("rows", t.NumRows()))

		if insOutputPath != "" {
			if err := utils.SafeWriteFile(insOutputPath, []byte(md)); err != nil {
				return errors.Wrap(err, "write output")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", insOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	insLoad.register(inspectCmd)
	inspectCmd.Flags().StringVarP(&insOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	inspectCmd.Flags().IntVar(&insSampleRows, "sample-rows", 5, "number of sample rows to include")
	inspectCmd.Flags().StringVar(&insGroupBy, "group-by", "", "column to summarize the target by")
	inspectCmd.Flags().BoolVar(&insNoCorr, "no-correlations", false, "skip the correlation matrix")
}
