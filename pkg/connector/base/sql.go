package base

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Credentials is the user/password block of SQL-backed connectors
type Credentials struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// QueryOptions are the selection fields shared by SQL sources
type QueryOptions struct {
	Schema           string   `mapstructure:"schema"`
	Table            string   `mapstructure:"table"`
	Columns          []string `mapstructure:"columns"`
	Where            string   `mapstructure:"where"`
	Limit            int      `mapstructure:"limit"`
	TrimPlaceholders bool     `mapstructure:"trim_placeholders"`
}

// Validate checks the required selection fields
func (q QueryOptions) Validate() error {
	if err := Required(map[string]string{"schema": q.Schema, "table": q.Table}); err != nil {
		return err
	}
	if q.Limit < 0 {
		return errors.New(errors.ErrorTypeConfig, "limit must not be negative")
	}
	return nil
}

// SQL assembles SELECT <columns> FROM <schema>.<table> [WHERE ...] [LIMIT n].
// Identifiers are used verbatim.
func (q QueryOptions) SQL() string {
	cols := "*"
	if len(q.Columns) > 0 {
		cols = strings.Join(q.Columns, ", ")
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cols)
	b.WriteString(" FROM ")
	if q.Schema != "" {
		b.WriteString(q.Schema)
		b.WriteString(".")
	}
	b.WriteString(q.Table)
	if q.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where)
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	return b.String()
}

// ProbeQuery returns a statement selecting one constant row on the given
// database flavour. Dialects without a real dual table use their system
// dummy table.
func ProbeQuery(dialect string) string {
	switch strings.ToLower(dialect) {
	case "db2", "derby":
		return "SELECT 1 FROM SYSIBM.SYSDUMMY1"
	case "hana", "sybase":
		return "SELECT 1 FROM SYS.DUMMY"
	case "aurora_mysql", "memsql":
		return "SELECT 1 FROM DUAL"
	case "firebird":
		return "SELECT 1 FROM RDB$DATABASE"
	case "hsqldb":
		return "SELECT 1 FROM (VALUES(1)) AS dual(dual)"
	default:
		return "SELECT 1"
	}
}

var placeholderPattern = regexp.MustCompile(`^(?: +|-+)$`)

// TrimPlaceholders replaces strings made only of spaces or only of dashes
// with the empty string. Legacy databases pad empty CHAR columns this way.
func TrimPlaceholders(v interface{}) interface{} {
	if s, ok := v.(string); ok && placeholderPattern.MatchString(s) {
		return ""
	}
	return v
}

// ReadRows drains rows into a table, normalising driver values
func ReadRows(rows *sql.Rows) (*models.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to read result columns")
	}
	tbl := models.NewTable(cols...)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to scan row")
		}
		for i, v := range values {
			values[i] = models.Normalize(v)
		}
		tbl.Rows = append(tbl.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to iterate rows")
	}
	return tbl, nil
}

// PingQuery runs query on db and reports whether it returned a row
func PingQuery(ctx context.Context, db *sql.DB, query string) (bool, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("probe query %q failed", query))
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}
