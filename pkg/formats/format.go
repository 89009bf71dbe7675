// Package formats encodes and decodes tables as CSV, Excel and Parquet files.
package formats

import (
	"fmt"
	"io"
	"strings"

	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Format names a file encoding
type Format string

const (
	CSV     Format = "csv"
	Excel   Format = "xlsx"
	Parquet Format = "parquet"
)

// ParseFormat accepts csv, parquet, xlsx or excel, in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return CSV, nil
	case "parquet":
		return Parquet, nil
	case "xlsx", "excel":
		return Excel, nil
	default:
		return "", errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported format %q", s))
	}
}

// Extension returns the file suffix including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Encode writes t in format f. csv configures CSV output when f is CSV.
func Encode(w io.Writer, f Format, t *models.Table, csv CSVOptions) error {
	switch f {
	case CSV:
		return WriteCSV(w, t, csv)
	case Parquet:
		return WriteParquet(w, t)
	case Excel:
		return WriteExcel(w, t, ExcelOptions{WithIndex: csv.WithIndex})
	default:
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported format %q", f))
	}
}

// Decode reads a table in format f
func Decode(r io.Reader, f Format, csv CSVOptions) (*models.Table, error) {
	switch f {
	case CSV:
		return ReadCSV(r, csv)
	case Parquet:
		return ReadParquet(r)
	case Excel:
		return ReadExcel(r, ExcelOptions{WithIndex: csv.WithIndex})
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unsupported format %q", f))
	}
}
