package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var salesRows = []string{
	"Store,Dept,Date,Weekly_Sales,IsHoliday,Type,Temperature,MarkDown1",
	"1,1,2010-02-05,24924.5,False,A,42.31,",
	"1,2,2010-02-12,46039.49,True,A,38.51,NA",
	"2,1,2010-02-19,41595.55,False,B,39.93,10.5",
	"2,2,2010-02-26,19403.54,False,,46.63,20",
	"3,1,2010-03-05,21827.9,False,C,46.5,30.25",
}

func writeCSV(t *testing.T, name string, rows []string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(rows, "\n")), 0o644))
	return p
}

func TestLoadCSVInfersKinds(t *testing.T) {
	p := writeCSV(t, "sales.csv", salesRows)
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "sales.csv", tbl.Name)
	assert.Equal(t, 5, tbl.NumRows())
	assert.Equal(t, []string{"Store", "Dept", "Date", "Weekly_Sales", "IsHoliday", "Type", "Temperature", "MarkDown1"}, tbl.Names())

	kinds := map[string]Kind{}
	for _, c := range tbl.Columns {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, Numeric, kinds["Store"])
	assert.Equal(t, Categorical, kinds["Date"])
	assert.Equal(t, Numeric, kinds["Weekly_Sales"])
	assert.Equal(t, Boolean, kinds["IsHoliday"])
	assert.Equal(t, Categorical, kinds["Type"])
	assert.Equal(t, Numeric, kinds["MarkDown1"])

	md, _ := tbl.Column("MarkDown1")
	assert.Equal(t, 2, md.MissingCount())
	assert.True(t, math.IsNaN(md.Num[0]))
	assert.InDelta(t, 10.5, md.Num[2], 1e-12)

	holiday, _ := tbl.Column("IsHoliday")
	assert.Equal(t, []float64{0, 1, 0, 0, 0}, holiday.Num)

	typ, _ := tbl.Column("Type")
	assert.Equal(t, 1, typ.MissingCount())
	assert.Equal(t, "NaN", typ.Value(3))
}

func TestLoadCSVBooleanWithMissingIsCategorical(t *testing.T) {
	p := writeCSV(t, "flags.csv", []string{"flag,v", "True,1", ",2", "False,3"})
	tbl, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	flag, ok := tbl.Column("flag")
	require.True(t, ok)
	assert.Equal(t, Categorical, flag.Kind)
}

func TestLoadRejectsNonNumericExpectedColumn(t *testing.T) {
	p := writeCSV(t, "bad.csv", []string{"Weekly_Sales,Type", "10,A", "n/a,B", "abc,C"})
	opt := DefaultOptions()
	opt.NumericColumns = []string{"Weekly_Sales"}
	_, err := Load(p, opt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotNumeric))
	assert.Contains(t, err.Error(), "Weekly_Sales")
}

func TestLoadTSVAndMaxRows(t *testing.T) {
	p := writeCSV(t, "sales.tsv", []string{"a\tb", "1\tx", "2\ty", "3\tz"})
	opt := DefaultOptions()
	opt.MaxRows = 2
	tbl, err := Load(p, opt)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
	a, _ := tbl.Column("a")
	assert.Equal(t, []float64{1, 2}, a.Num)
}

func TestLoadLocaleNumbers(t *testing.T) {
	p := writeCSV(t, "eu.csv", []string{"amount;label", "1.000,5;a", "2,25;b"})
	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	tbl, err := Load(p, opt)
	require.NoError(t, err)
	amount, _ := tbl.Column("amount")
	require.Equal(t, Numeric, amount.Kind)
	assert.Equal(t, []float64{1000.5, 2.25}, amount.Num)
}

func TestRequireNamesMissingColumns(t *testing.T) {
	tbl, err := NewTable("t", &Column{Name: "a", Kind: Numeric, Num: []float64{1}})
	require.NoError(t, err)
	err = tbl.Require("a", "IsHoliday", "Type")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "IsHoliday")
	assert.Contains(t, err.Error(), "Type")
}

func TestTableTakeDropMatrix(t *testing.T) {
	tbl, err := NewTable("t",
		&Column{Name: "x", Kind: Numeric, Num: []float64{1, 2, 3}},
		&Column{Name: "flag", Kind: Boolean, Num: []float64{0, 1, 0}},
		&Column{Name: "y", Kind: Numeric, Num: []float64{10, 20, 30}},
	)
	require.NoError(t, err)

	sub := tbl.Take([]int{2, 0})
	x, _ := sub.Column("x")
	assert.Equal(t, []float64{3, 1}, x.Num)

	X := tbl.Drop("y")
	assert.Equal(t, []string{"x", "flag"}, X.Names())
	m, err := X.Matrix()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {2, 1}, {3, 0}}, m)

	filtered := tbl.Filter(func(i int) bool { return i != 1 })
	assert.Equal(t, 2, filtered.NumRows())
}

func TestNewTableRejectsRaggedColumns(t *testing.T) {
	_, err := NewTable("t",
		&Column{Name: "a", Kind: Numeric, Num: []float64{1, 2}},
		&Column{Name: "b", Kind: Categorical, Str: []string{"x"}},
	)
	assert.Error(t, err)
}

func TestMatrixRejectsCategorical(t *testing.T) {
	tbl, err := NewTable("t", &Column{Name: "c", Kind: Categorical, Str: []string{"a"}})
	require.NoError(t, err)
	_, err = tbl.Matrix()
	assert.True(t, errors.Is(err, ErrNotNumeric))
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{",": ',', "tab": '\t', "\t": '\t', ";": ';'} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDelimiter("|")
	assert.Error(t, err)
}
