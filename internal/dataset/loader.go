package dataset

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Options controls how a file is read into a Table.
type Options struct {
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, sniffed from the file extension.
	Delimiter rune
	// Numeric parsing locale. Zero values mean plain Go float syntax.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection; SheetIndex is 1-based.
	SheetName  string
	SheetIndex int
	// NumericColumns must infer as numeric, otherwise loading fails.
	NumericColumns []string
}

// DefaultOptions returns reasonable defaults for loading a dataset.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Loader reads one file format into a Table.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{})
}

// Load selects a loader based on filename, reads the file and checks the
// expected-numeric columns.
func Load(path string, opt Options) (*Table, error) {
	var l Loader = csvLoader{}
	for _, candidate := range registry {
		if candidate.CanLoad(path) {
			l = candidate
			break
		}
	}
	t, err := l.Load(path, opt)
	if err != nil {
		return nil, err
	}
	if t.Name == "" {
		t.Name = filepath.Base(path)
	}
	for _, name := range opt.NumericColumns {
		c, ok := t.Column(name)
		if !ok {
			continue
		}
		if c.Kind != Numeric {
			return nil, errors.Wrapf(ErrNotNumeric, "%q inferred as %s (e.g. %q)", name, c.Kind, firstValue(c))
		}
	}
	return t, nil
}

func firstValue(c *Column) string {
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			return c.Value(i)
		}
	}
	return ""
}

func hasSuffixFold(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
