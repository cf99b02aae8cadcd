package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// execRoot runs the root command with args and returns its stdout. Flags are
// reset first since cobra keeps values between executions.
func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	for _, c := range []*cobra.Command{rootCmd, runCmd, inspectCmd, inspectBatchCmd, configShowCmd, configSetCmd} {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	}
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeSalesCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Store,Weekly_Sales,IsHoliday,Type,Temperature,MarkDown1\n")
	for i := 0; i < 45; i++ {
		temp := 30 + float64((i*11)%40)
		markdown := "NA"
		if i%5 != 0 {
			markdown = fmt.Sprint((i * 7) % 30)
		}
		fmt.Fprintf(&b, "%d,%.2f,%t,%s,%.1f,%s\n",
			i%4+1, 2000+40*temp+float64((i*29)%300), i%5 == 0, []string{"A", "B", "C"}[i%3], temp, markdown)
	}
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestCLI_RunWritesReport(t *testing.T) {
	home := isolateHome(t)
	data := writeSalesCSV(t, home)
	report := filepath.Join(home, "out", "report.md")

	out, err := execRoot(t, "run", data, "--no-plots", "--seed", "7", "-o", report)
	require.NoError(t, err)
	for _, s := range []string{"[DATASET SUMMARY]", "[MODEL COMPARISON]", "Linear Regression", "[CLASSIFICATION]", "✓ Wrote report to"} {
		assert.Contains(t, out, s)
	}
	b, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[FEATURE IMPORTANCE]")
	assert.NotContains(t, string(b), "✓ Wrote report to")
}

func TestCLI_RunWithPlots(t *testing.T) {
	home := isolateHome(t)
	data := writeSalesCSV(t, home)
	plotsDir := filepath.Join(home, "plots")

	out, err := execRoot(t, "run", data, "--plots-dir", plotsDir, "--test-size", "0.25")
	require.NoError(t, err)
	assert.Contains(t, out, "plot: "+filepath.Join(plotsDir, "feature_importance.png"))
	_, err = os.Stat(filepath.Join(plotsDir, "correlation_heatmap.png"))
	assert.NoError(t, err)
}

func TestCLI_RunFailsOnMissingTarget(t *testing.T) {
	home := isolateHome(t)
	data := writeSalesCSV(t, home)

	_, err := execRoot(t, "run", data, "--no-plots", "--target", "Revenue")
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrMissingColumn), "%v", err)

	_, err = execRoot(t, "run", data, "--no-plots", "--test-size", "1.2")
	assert.ErrorContains(t, err, "test_size")

	_, err = execRoot(t, "run", data, "--no-plots", "--delimiter", "|")
	assert.ErrorContains(t, err, "unsupported delimiter")
}

func TestCLI_RunWithRenamedTarget(t *testing.T) {
	home := isolateHome(t)
	data := writeSalesCSV(t, home)
	b, err := os.ReadFile(data)
	require.NoError(t, err)
	renamed := filepath.Join(home, "revenue.csv")
	require.NoError(t, os.WriteFile(renamed, []byte(strings.Replace(string(b), "Weekly_Sales", "Revenue", 1)), 0o644))

	out, err := execRoot(t, "run", renamed, "--no-plots", "--target", "Revenue")
	require.NoError(t, err)
	assert.Contains(t, out, "[MODEL COMPARISON]")
	assert.NotContains(t, out, "Weekly_Sales")
}

func TestRetargetSwapsRequiredColumn(t *testing.T) {
	assert.Equal(t, []string{"Revenue", "IsHoliday", "Type"},
		retarget([]string{"Weekly_Sales", "IsHoliday", "Type"}, "Weekly_Sales", "Revenue"))
	assert.Equal(t, []string{"Type"}, retarget([]string{"Weekly_Sales", "Type"}, "Weekly_Sales", "Type"))
}

func TestCLI_Inspect(t *testing.T) {
	home := isolateHome(t)
	data := writeSalesCSV(t, home)

	out, err := execRoot(t, "inspect", data, "--sample-rows", "2", "--group-by", "Type")
	require.NoError(t, err)
	assert.Contains(t, out, "[SCHEMA]")
	assert.Contains(t, out, "[GROUP-BY SUMMARY]")
	assert.Contains(t, out, "Rows: 45")

	summary := filepath.Join(home, "summary.md")
	out, err = execRoot(t, "inspect", data, "-o", summary)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote analysis to")
	b, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[DESCRIBE]")

	_, err = execRoot(t, "inspect", data, "--group-by", "Region")
	assert.True(t, errors.Is(err, dataset.ErrMissingColumn))
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolateHome(t)
	cfgPath := filepath.Join(home, "salescope.yaml")

	out, err := execRoot(t, "--config", cfgPath, "config", "set", "gb_estimators", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved config")

	out, err = execRoot(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "gb_estimators: 25")
	assert.Contains(t, out, "target_column: Weekly_Sales")

	_, err = execRoot(t, "--config", cfgPath, "config", "set", "bogus", "1")
	assert.ErrorContains(t, err, "unknown key")
}

func TestCLI_InspectBatchNamesCollisions(t *testing.T) {
	home := isolateHome(t)
	csv := "col1,col2\nA,1\nB,2\nC,3\n"
	for _, d := range []string{"d1", "d2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(home, d), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(home, d, "metrics.csv"), []byte(csv), 0o644))
	}
	outDir := filepath.Join(home, "summaries")

	out, err := execRoot(t, "inspect-batch", filepath.Join(home, "d*", "metrics.csv"), "--out-dir", outDir, "--sample-rows", "0", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote 2 summaries")

	first, err := os.ReadFile(filepath.Join(outDir, "metrics.summary.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "metrics__2.summary.md"))
	require.NoError(t, err)
	assert.NotContains(t, string(first), "[HEAD AND SAMPLE ROWS]")
	assert.Contains(t, string(first), "Rows: 3")

	_, err = execRoot(t, "inspect-batch", filepath.Join(home, "nothing*.csv"))
	assert.ErrorContains(t, err, "no input files matched")
}
