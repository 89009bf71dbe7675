package formats

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/models"
)

const parquetBatchSize = 64 * 1024

// ReadParquet decodes a whole parquet file into a table
func ReadParquet(r io.Reader) (*models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read parquet data")
	}

	fr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create parquet reader")
	}
	defer fr.Close()

	pool := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{BatchSize: parquetBatchSize}, pool)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to create arrow reader")
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read parquet table")
	}
	defer table.Release()

	schema := table.Schema()
	names := make([]string, 0, len(schema.Fields()))
	for _, f := range schema.Fields() {
		names = append(names, f.Name)
	}
	out := models.NewTable(names...)

	nrows := int(table.NumRows())
	ncols := int(table.NumCols())
	out.Rows = make([][]interface{}, nrows)
	for i := range out.Rows {
		out.Rows[i] = make([]interface{}, ncols)
	}
	for j := 0; j < ncols; j++ {
		i := 0
		for _, chunk := range table.Column(j).Data().Chunks() {
			for k := 0; k < chunk.Len() && i < nrows; k++ {
				out.Rows[i][j] = arrowValue(chunk, k)
				i++
			}
		}
	}
	return out, nil
}

func arrowValue(col arrow.Array, i int) interface{} {
	if col.IsNull(i) {
		return nil
	}
	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(i)
	case *array.Int8:
		return int64(c.Value(i))
	case *array.Int16:
		return int64(c.Value(i))
	case *array.Int32:
		return int64(c.Value(i))
	case *array.Int64:
		return c.Value(i)
	case *array.Uint8:
		return int64(c.Value(i))
	case *array.Uint16:
		return int64(c.Value(i))
	case *array.Uint32:
		return int64(c.Value(i))
	case *array.Uint64:
		// values past int64 fall back to float64, as numeric text does
		v := c.Value(i)
		if v > math.MaxInt64 {
			return float64(v)
		}
		return int64(v)
	case *array.Float32:
		return float64(c.Value(i))
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		return c.Value(i)
	case *array.LargeString:
		return c.Value(i)
	case *array.Binary:
		return string(c.Value(i))
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(i).ToTime(unit).UTC()
	case *array.Date32:
		return c.Value(i).ToTime().UTC()
	case *array.Date64:
		return c.Value(i).ToTime().UTC()
	default:
		return col.ValueStr(i)
	}
}

// InferArrowType picks the arrow type able to hold every non-nil value of a column
func InferArrowType(values []interface{}) arrow.DataType {
	switch models.InferKind(values) {
	case models.KindInt:
		return arrow.PrimitiveTypes.Int64
	case models.KindFloat:
		return arrow.PrimitiveTypes.Float64
	case models.KindBool:
		return arrow.FixedWidthTypes.Boolean
	case models.KindTime:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// WriteParquet encodes the table as a snappy-compressed parquet file
func WriteParquet(w io.Writer, t *models.Table) error {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c, Type: InferArrowType(t.Column(c)), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	pool := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	for _, row := range t.Rows {
		for j := range fields {
			var v interface{}
			if j < len(row) {
				v = row[j]
			}
			if err := appendArrow(builder.Field(j), v); err != nil {
				return errors.Wrap(err, errors.ErrorTypeData,
					fmt.Sprintf("failed to encode column %q", fields[j].Name))
			}
		}
	}
	rec := builder.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool))

	// the writer closes its sink; give it a buffer and copy out afterwards
	var buf bytes.Buffer
	fw, err := pqarrow.NewFileWriter(schema, &buf, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to create parquet writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, errors.ErrorTypeData, "failed to write parquet record")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to finalize parquet file")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write parquet output")
	}
	return nil
}

func appendArrow(b array.Builder, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch bb := b.(type) {
	case *array.Int64Builder:
		switch n := v.(type) {
		case int64:
			bb.Append(n)
		case int:
			bb.Append(int64(n))
		case int32:
			bb.Append(int64(n))
		default:
			return fmt.Errorf("unexpected %T in int64 column", v)
		}
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			bb.Append(n)
		case float32:
			bb.Append(float64(n))
		case int64:
			bb.Append(float64(n))
		case int:
			bb.Append(float64(n))
		case int32:
			bb.Append(float64(n))
		default:
			return fmt.Errorf("unexpected %T in float64 column", v)
		}
	case *array.BooleanBuilder:
		bb.Append(v.(bool))
	case *array.TimestampBuilder:
		bb.Append(arrow.Timestamp(v.(time.Time).UnixMicro()))
	case *array.StringBuilder:
		bb.Append(models.FormatValue(v, "."))
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}
