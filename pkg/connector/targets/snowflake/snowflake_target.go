// Package snowflake provides a target creating a Snowflake table per package
// and filling it with batched INSERT statements.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Type is the registry discriminator
const Type = "snowflake"

// Write modes for existing tables
const (
	IfExistsReplace = "replace"
	IfExistsAppend  = "append"
	IfExistsFail    = "fail"
)

const defaultBatchSize = 1000

// Config is the snowflake target configuration
type Config struct {
	base.Identity `mapstructure:",squash"`
	Account       string `mapstructure:"account"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	Schema        string `mapstructure:"schema"`
	Warehouse     string `mapstructure:"warehouse"`
	Role          string `mapstructure:"role"`
	// Table defaults to the package name
	Table     string `mapstructure:"table"`
	IfExists  string `mapstructure:"if_exists"`
	BatchSize int    `mapstructure:"batch_size"`
}

// SetDefaults fills write mode and batch size
func (c *Config) SetDefaults() {
	c.IfExists = strings.ToLower(c.IfExists)
	if c.IfExists == "" {
		c.IfExists = IfExistsReplace
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
}

// Validate checks required fields and the write mode
func (c *Config) Validate() error {
	if err := base.Required(map[string]string{
		"account":  c.Account,
		"user":     c.User,
		"password": c.Password,
		"database": c.Database,
		"schema":   c.Schema,
	}); err != nil {
		return err
	}
	switch c.IfExists {
	case IfExistsReplace, IfExistsAppend, IfExistsFail:
		return nil
	default:
		return errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("if_exists must be replace, append or fail, got %q", c.IfExists))
	}
}

// DSN renders the driver data source name
func (c *Config) DSN() (string, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Database:  c.Database,
		Schema:    c.Schema,
		Warehouse: c.Warehouse,
		Role:      c.Role,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid snowflake connection settings")
	}
	return dsn, nil
}

// Target writes packages into tables of one schema
type Target struct {
	base.Identity
	cfg    Config
	logger *zap.Logger
}

// New builds a snowflake target. No connection is opened before Load or Check.
func New(spec config.ConnectorSpec) (core.Target, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.DSN(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConstruction, "invalid snowflake target")
	}
	return &Target{
		Identity: cfg.Identity,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "snowflake_target"), zap.String("target", cfg.Name())),
	}, nil
}

func (t *Target) open() (*sql.DB, error) {
	dsn, err := t.cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open snowflake connection")
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// TableName returns the destination table of a package
func (t *Target) TableName(pkgName string) string {
	if t.cfg.Table != "" {
		return t.cfg.Table
	}
	return pkgName
}

// Load creates (or reuses) one table per package and inserts its rows.
// Packages sharing a table within one Load append after the first.
func (t *Target) Load(ctx context.Context, stream *core.PackageStream) error {
	db, err := t.open()
	if err != nil {
		return err
	}
	defer db.Close()

	written := map[string]bool{}
	return stream.Each(ctx, func(pkg *core.DataPackage) error {
		table := t.TableName(pkg.Name)
		mode := t.cfg.IfExists
		if written[table] {
			mode = IfExistsAppend
		}
		if err := t.loadTable(ctx, db, table, pkg.Table, mode); err != nil {
			return err
		}
		written[table] = true
		return nil
	})
}

func (t *Target) loadTable(ctx context.Context, db *sql.DB, table string, tbl *models.Table, mode string) error {
	ddl := CreateTableSQL(table, tbl, mode)
	t.logger.Info("preparing table", zap.String("table", table), zap.String("mode", mode))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, errors.ErrorTypeLoad, "failed to create table").
			WithDetail("table", table).
			WithDetail("statement", ddl)
	}

	for start := 0; start < tbl.Len(); start += t.cfg.BatchSize {
		end := start + t.cfg.BatchSize
		if end > tbl.Len() {
			end = tbl.Len()
		}
		rows := tbl.Rows[start:end]
		stmt, args := InsertSQL(table, tbl.Columns, rows)
		if _, err := db.ExecContext(ctx, stmt, args...); err != nil {
			return errors.Wrap(err, errors.ErrorTypeLoad, "failed to insert rows").
				WithDetail("table", table).
				WithDetail("offset", start)
		}
		t.logger.Debug("inserted batch", zap.String("table", table), zap.Int("rows", len(rows)))
	}
	t.logger.Info("loaded table", zap.String("table", table), zap.Int("rows", tbl.Len()))
	return nil
}

// Check connects and runs SELECT 1
func (t *Target) Check(ctx context.Context) (bool, error) {
	db, err := t.open()
	if err != nil {
		return false, err
	}
	defer db.Close()
	return base.PingQuery(ctx, db, base.ProbeQuery(Type))
}

// Quote renders a case-preserving identifier
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// ColumnType maps an inferred column kind onto a Snowflake type
func ColumnType(k models.Kind) string {
	switch k {
	case models.KindInt:
		return "NUMBER(38,0)"
	case models.KindFloat:
		return "FLOAT"
	case models.KindBool:
		return "BOOLEAN"
	case models.KindTime:
		return "TIMESTAMP_NTZ"
	default:
		return "VARCHAR"
	}
}

// CreateTableSQL returns the DDL preparing table for a write in mode
func CreateTableSQL(table string, tbl *models.Table, mode string) string {
	var b strings.Builder
	switch mode {
	case IfExistsReplace:
		b.WriteString("CREATE OR REPLACE TABLE ")
	case IfExistsAppend:
		b.WriteString("CREATE TABLE IF NOT EXISTS ")
	default:
		b.WriteString("CREATE TABLE ")
	}
	b.WriteString(Quote(table))
	b.WriteString(" (")
	for i, c := range tbl.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Quote(c))
		b.WriteString(" ")
		b.WriteString(ColumnType(models.InferKind(tbl.Column(c))))
	}
	b.WriteString(")")
	return b.String()
}

// InsertSQL returns a multi-row INSERT with positional binds
func InsertSQL(table string, columns []string, rows [][]interface{}) (string, []interface{}) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = Quote(c)
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(Quote(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(") VALUES ")

	args := make([]interface{}, 0, len(rows)*len(columns))
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholder)
		for j := range columns {
			var v interface{}
			if j < len(r) {
				v = r[j]
			}
			args = append(args, v)
		}
	}
	return b.String(), args
}
