package formats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// DefaultSheet is the sheet written when no name is configured
const DefaultSheet = "Sheet1"

// ExcelOptions control workbook encoding.
type ExcelOptions struct {
	// Sheet selects the worksheet by name, or by zero-based position when it
	// is all digits. Empty means the first sheet.
	Sheet     string
	WithIndex bool
}

func resolveSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New(errors.ErrorTypeData, "workbook has no sheets")
	}
	if sheet == "" {
		return sheets[0], nil
	}
	if idx, err := strconv.Atoi(sheet); err == nil {
		if idx < 0 || idx >= len(sheets) {
			return "", errors.New(errors.ErrorTypeData,
				fmt.Sprintf("sheet index %d out of range (%d sheets)", idx, len(sheets)))
		}
		return sheets[idx], nil
	}
	for _, s := range sheets {
		if s == sheet {
			return s, nil
		}
	}
	return "", errors.New(errors.ErrorTypeData, fmt.Sprintf("sheet %q not found", sheet))
}

// ReadExcel decodes one worksheet; the first row is the header.
func ReadExcel(r io.Reader, opts ExcelOptions) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to open workbook")
	}
	defer f.Close()

	sheet, err := resolveSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("failed to read sheet %q", sheet))
	}
	if len(rows) == 0 {
		return models.NewTable(), nil
	}

	header := rows[0]
	skip := 0
	if opts.WithIndex && len(header) > 0 && strings.TrimSpace(header[0]) == "" {
		skip = 1
	}
	tbl := models.NewTable(header[skip:]...)
	for _, record := range rows[1:] {
		row := make([]interface{}, len(tbl.Columns))
		for i := range row {
			if i+skip < len(record) {
				row[i] = models.InferValue(record[i+skip], ".")
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}

// WriteExcel encodes the table into a single-sheet workbook
func WriteExcel(w io.Writer, t *models.Table, opts ExcelOptions) error {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to name sheet")
		}
	}

	header := make([]interface{}, 0, len(t.Columns)+1)
	if opts.WithIndex {
		header = append(header, "")
	}
	for _, c := range t.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to write header")
	}

	for i, r := range t.Rows {
		row := make([]interface{}, 0, len(header))
		if opts.WithIndex {
			row = append(row, i)
		}
		for j := range t.Columns {
			var v interface{}
			if j < len(r) {
				v = r[j]
			}
			row = append(row, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "row out of range")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to write row")
		}
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to write workbook")
	}
	return nil
}
