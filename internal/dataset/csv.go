package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	return hasSuffixFold(filename, ".csv", ".tsv", ".txt")
}

func (csvLoader) Load(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	t, err := ReadCSV(f, delim, opt)
	if err != nil {
		return nil, err
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// ReadCSV reads a delimited stream with a header row.
func ReadCSV(r io.Reader, delim rune, opt Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, errors.Wrap(err, "read header")
	}
	return buildTable(header, func() ([]string, error) {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return rec, err
	}, opt)
}

// buildTable drains next until io.EOF and infers one column per header cell.
// Short rows are padded with missing values.
func buildTable(header []string, next func() ([]string, error), opt Options) (*Table, error) {
	ncol := len(header)
	if ncol == 0 {
		return &Table{}, nil
	}
	cols := make([]*columnBuilder, ncol)
	for i := range header {
		name := strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		cols[i] = newColumnBuilder(name, &opt)
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	rows := 0
	for rows < maxRows {
		rec, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "read row %d", rows+1)
		}
		if len(rec) > ncol {
			return nil, errors.Errorf("row %d has %d fields, header has %d", rows+1, len(rec), ncol)
		}
		for j := 0; j < ncol; j++ {
			if j < len(rec) {
				cols[j].add(rec[j])
			} else {
				cols[j].add("")
			}
		}
		rows++
	}
	built := make([]*Column, ncol)
	for i, b := range cols {
		built[i] = b.build()
	}
	return NewTable("", built...)
}

func sniffDelimiter(path string) rune {
	if hasSuffixFold(path, ".tsv") {
		return '\t'
	}
	return ','
}

// ParseDelimiter maps a flag or config value onto a CSV delimiter.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case ",", "comma":
		return ',', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	default:
		return 0, errors.Errorf("unsupported delimiter: %q (use ',' | ';' | 'tab')", s)
	}
}
