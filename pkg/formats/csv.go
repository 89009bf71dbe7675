package formats

import (
	"encoding/csv"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// CSVOptions control delimited text encoding.
type CSVOptions struct {
	Separator string `mapstructure:"separator"`
	Decimal   string `mapstructure:"decimal"`
	// WithIndex writes a leading unnamed column holding the row number, and
	// drops such a column when reading.
	WithIndex bool `mapstructure:"with_index"`
}

// SetDefaults fills separator and decimal mark
func (o *CSVOptions) SetDefaults() {
	if o.Separator == "" {
		o.Separator = ","
	}
	if o.Decimal == "" {
		o.Decimal = "."
	}
}

// Validate rejects multi-character separators
func (o CSVOptions) Validate() error {
	if utf8.RuneCountInString(o.Separator) != 1 {
		return errors.New(errors.ErrorTypeConfig, "separator must be a single character")
	}
	if utf8.RuneCountInString(o.Decimal) != 1 {
		return errors.New(errors.ErrorTypeConfig, "decimal must be a single character")
	}
	return nil
}

func (o CSVOptions) comma() rune {
	r, _ := utf8.DecodeRuneInString(o.Separator)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// ReadCSV decodes a header row plus data rows. Cell types are inferred.
func ReadCSV(r io.Reader, opts CSVOptions) (*models.Table, error) {
	opts.SetDefaults()
	cr := csv.NewReader(r)
	cr.Comma = opts.comma()
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return models.NewTable(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read csv header")
	}

	skip := 0
	if opts.WithIndex && len(header) > 0 && header[0] == "" {
		skip = 1
	}
	tbl := models.NewTable(header[skip:]...)

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read csv record")
		}
		row := make([]interface{}, len(tbl.Columns))
		for i := range row {
			if i+skip < len(record) {
				row[i] = models.InferValue(record[i+skip], opts.Decimal)
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}

// WriteCSV encodes the table with a header row
func WriteCSV(w io.Writer, t *models.Table, opts CSVOptions) error {
	opts.SetDefaults()
	cw := csv.NewWriter(w)
	cw.Comma = opts.comma()

	header := t.Columns
	if opts.WithIndex {
		header = append([]string{""}, t.Columns...)
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to write csv header")
	}

	width := len(header)
	record := make([]string, width)
	for i, row := range t.Rows {
		off := 0
		if opts.WithIndex {
			record[0] = strconv.Itoa(i)
			off = 1
		}
		for j := range t.Columns {
			var v interface{}
			if j < len(row) {
				v = row[j]
			}
			record[j+off] = models.FormatValue(v, opts.Decimal)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to write csv record")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to flush csv")
	}
	return nil
}
