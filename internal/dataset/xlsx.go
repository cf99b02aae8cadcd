package dataset

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	return hasSuffixFold(filename, ".xlsx")
}

// Load reads the selected sheet of a workbook. The first row is the header.
// If SheetName is empty, SheetIndex (1-based, workbook order) picks the sheet.
func (xlsxLoader) Load(p string, opt Options) (*Table, error) {
	f, err := excelize.OpenFile(p)
	if err != nil {
		return nil, errors.Wrap(err, "open xlsx")
	}
	defer f.Close()

	sheet, err := resolveSheet(f.GetSheetList(), opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, errors.Wrapf(err, "workbook %s", filepath.Base(p))
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "sheet %s", sheet)
	}
	defer rows.Close()

	rowNum := 0
	next := func() ([]string, error) {
		if !rows.Next() {
			if err := rows.Error(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		rowNum++
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		return cells, boolCells(f, sheet, rowNum, cells)
	}
	header, err := next()
	if errors.Is(err, io.EOF) || (err == nil && len(header) == 0) {
		return &Table{Name: filepath.Base(p)}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	t, err := buildTable(header, func() ([]string, error) {
		row, err := next()
		if len(row) > len(header) {
			row = row[:len(header)]
		}
		return row, err
	}, opt)
	if err != nil {
		return nil, err
	}
	t.Name = filepath.Base(p)
	return t, nil
}

// resolveSheet picks a sheet by case-insensitive name, or by 1-based
// position when name is empty.
func resolveSheet(sheets []string, name string, index int) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				return s, nil
			}
		}
		return "", errors.Errorf("sheet %q not found; available sheets: %s", name, strings.Join(sheets, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index > len(sheets) {
		return "", errors.Errorf("sheet index %d out of range; workbook has %d sheets", index, len(sheets))
	}
	return sheets[index-1], nil
}

// boolCells rewrites the raw "0"/"1" of boolean-typed cells in row as
// FALSE/TRUE so they infer like CSV booleans.
func boolCells(f *excelize.File, sheet string, row int, cells []string) error {
	for i, v := range cells {
		if v != "0" && v != "1" {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		typ, err := f.GetCellType(sheet, ref)
		if err != nil {
			return errors.Wrapf(err, "cell %s", ref)
		}
		if typ == excelize.CellTypeBool {
			cells[i] = strings.ToUpper(strconv.FormatBool(v == "1"))
		}
	}
	return nil
}
