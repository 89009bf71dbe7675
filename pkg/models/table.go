// Package models defines the tabular payload exchanged between sources and targets.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table is an ordered set of named columns and the rows under them.
// Cells hold nil, string, int64, float64, bool or time.Time.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

// NewTable creates an empty table with the given columns. Repeated names
// are made unique, see UniqueColumns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: UniqueColumns(columns)}
}

// UniqueColumns returns a copy of names where every repeat of a name gets
// the first free numeric suffix: a, a, a becomes a, a_1, a_2.
func UniqueColumns(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if !seen[n] {
			seen[n] = true
			out[i] = n
			continue
		}
		for k := 1; ; k++ {
			candidate := n + "_" + strconv.Itoa(k)
			if !taken[candidate] {
				taken[candidate] = true
				out[i] = candidate
				break
			}
		}
	}
	return out
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows
func (t *Table) Empty() bool { return t.Len() == 0 }

// ColumnIndex returns the position of a column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddRow appends one row; short rows are padded with nil
func (t *Table) AddRow(values ...interface{}) {
	row := make([]interface{}, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// AddRecord appends a row from a column-keyed record, adding unseen columns
// in the order given by keys.
func (t *Table) AddRecord(keys []string, record map[string]interface{}) {
	for _, k := range keys {
		if t.ColumnIndex(k) < 0 {
			t.addColumn(k)
		}
	}
	row := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = record[c]
	}
	t.Rows = append(t.Rows, row)
}

func (t *Table) addColumn(name string) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], nil)
	}
}

// Column returns all values of a column
func (t *Table) Column(name string) []interface{} {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]interface{}, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out
}

// Append returns a new table holding t's rows followed by other's rows.
// Columns are aligned by name: t's columns come first, then the columns only
// other has. Cells missing on either side are nil.
func (t *Table) Append(other *Table) *Table {
	out := &Table{}
	if t != nil {
		out.Columns = append(out.Columns, t.Columns...)
	}
	if other != nil {
		for _, c := range other.Columns {
			if out.ColumnIndex(c) < 0 {
				out.Columns = append(out.Columns, c)
			}
		}
	}
	out.Rows = make([][]interface{}, 0, t.Len()+other.Len())
	for _, src := range []*Table{t, other} {
		if src == nil {
			continue
		}
		mapping := make([]int, len(src.Columns))
		for i, c := range src.Columns {
			mapping[i] = out.ColumnIndex(c)
		}
		for _, r := range src.Rows {
			row := make([]interface{}, len(out.Columns))
			for i, v := range r {
				if i < len(mapping) {
					row[mapping[i]] = v
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Clone returns a copy of the table that shares no slices with t
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]interface{}, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]interface{}(nil), r...)
	}
	return out
}

// Map applies fn to every cell in place
func (t *Table) Map(fn func(v interface{}) interface{}) {
	for _, r := range t.Rows {
		for j, v := range r {
			r[j] = fn(v)
		}
	}
}

// InferValue converts a textual cell into the narrowest matching type.
// Empty strings become nil. decimal is the decimal separator of the input.
func InferValue(s, decimal string) interface{} {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	num := trimmed
	numeric := true
	if decimal != "" && decimal != "." {
		// with a foreign decimal mark a "." is not part of a number
		numeric = !strings.Contains(num, ".")
		num = strings.Replace(num, decimal, ".", 1)
	}
	if numeric && looksNumeric(num) {
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return f
		}
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// looksNumeric rejects spellings ParseFloat accepts but a table cell should not
// be coerced from, such as "inf" or "nan".
func looksNumeric(s string) bool {
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E' {
			continue
		}
		return false
	}
	return true
}

// FormatValue renders a cell as text. decimal replaces "." in floats.
func FormatValue(v interface{}, decimal string) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		if decimal != "" && decimal != "." {
			s = strings.Replace(s, ".", decimal, 1)
		}
		return s
	case float32:
		return FormatValue(float64(t), decimal)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// Normalize maps driver-specific cell values onto the table cell types
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil, string, int64, float64, bool, time.Time:
		return t
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Kind is the storage class of a column
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

// InferKind picks the narrowest kind able to hold every non-nil value.
// Mixed integers and floats widen to KindFloat; anything else mixed, and an
// all-nil column, is KindString.
func InferKind(values []interface{}) Kind {
	var ints, floats, bools, times, others, set int
	for _, v := range values {
		switch v.(type) {
		case nil:
			continue
		case int64, int, int32:
			ints++
		case float64, float32:
			floats++
		case bool:
			bools++
		case time.Time:
			times++
		default:
			others++
		}
		set++
	}
	switch {
	case set == 0 || others > 0:
		return KindString
	case ints == set:
		return KindInt
	case ints+floats == set:
		return KindFloat
	case bools == set:
		return KindBool
	case times == set:
		return KindTime
	default:
		return KindString
	}
}
