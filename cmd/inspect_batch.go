package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salescope-cli/internal/analysis"
	"github.com/KaramelBytes/salescope-cli/internal/dataset"
	"github.com/KaramelBytes/salescope-cli/internal/log"
	"github.com/KaramelBytes/salescope-cli/internal/utils"
)

var (
	ibLoad       loadFlags
	ibOutDir     string
	ibSampleRows int
	ibQuiet      bool
)

var inspectBatchCmd = &cobra.Command{
	Use:   "inspect-batch <files...>",
	Short: "Summarize several CSV/TSV/XLSX files into an output directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return errors.New("no input files matched")
		}
		loadOpt, err := ibLoad.options(cfg.Delimiter)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.SampleRows = cfg.SampleRows
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = ibSampleRows
		}
		opt.IQRMultiplier = cfg.IQRMultiplier

		var bar *progressbar.ProgressBar
		if !ibQuiet {
			bar = progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("inspecting"),
			)
		}
		used := map[string]int{}
		for _, path := range files {
			t, err := dataset.Load(path, loadOpt)
			if err != nil {
				return errors.Wrapf(err, "load %s", path)
			}
			md := analysis.Summarize(t, opt).Markdown()

			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			used[base]++
			if n := used[base]; n > 1 {
				base = fmt.Sprintf("%s__%d", base, n)
			}
			outFile := filepath.Join(ibOutDir, base+".summary.md")
			if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
				return errors.Wrapf(err, "write summary for %s", path)
			}
			log.Logger().Debug("wrote summary", zap.String("input", path), zap.String("output", outFile))
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		if bar != nil {
			_ = bar.Finish()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d summaries to %s\n", len(files), ibOutDir)
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, drops
// duplicates and sorts the result.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func init() {
	rootCmd.AddCommand(inspectBatchCmd)
	ibLoad.register(inspectBatchCmd)
	inspectBatchCmd.Flags().StringVar(&ibOutDir, "out-dir", "summaries", "directory for the <name>.summary.md files")
	inspectBatchCmd.Flags().IntVar(&ibSampleRows, "sample-rows", 5, "number of sample rows per summary (0 disables)")
	inspectBatchCmd.Flags().BoolVarP(&ibQuiet, "quiet", "q", false, "hide the progress bar")
}
