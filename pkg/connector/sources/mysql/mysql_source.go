// Package mysql provides a source selecting one table of a MySQL or MariaDB
// database through database/sql.
package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/logger"
)

// Type is the registry discriminator
const Type = "mysql"

const defaultPort = 3306

// Config is the mysql source configuration
type Config struct {
	base.Identity     `mapstructure:",squash"`
	base.QueryOptions `mapstructure:",squash"`
	Host              string           `mapstructure:"host"`
	Port              int              `mapstructure:"port"`
	Database          string           `mapstructure:"database"`
	Credentials       base.Credentials `mapstructure:"credentials"`
	// TLS is passed to the driver's tls parameter: true, false, skip-verify or preferred
	TLS string `mapstructure:"tls"`
}

// SetDefaults fills the port
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
}

// Validate checks required fields
func (c *Config) Validate() error {
	if err := base.Required(map[string]string{"host": c.Host}); err != nil {
		return err
	}
	return c.QueryOptions.Validate()
}

// DSN renders the driver data source name
func (c *Config) DSN() string {
	dc := mysql.NewConfig()
	dc.User = c.Credentials.User
	dc.Passwd = c.Credentials.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dc.DBName = c.Database
	dc.ParseTime = true
	dc.TLSConfig = c.TLS
	return dc.FormatDSN()
}

// Source selects rows of one table
type Source struct {
	base.Identity
	cfg    Config
	logger *zap.Logger
}

// New builds a mysql source from its field map
func New(spec config.ConnectorSpec) (core.Source, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	return &Source{
		Identity: cfg.Identity,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "mysql_source"), zap.String("source", cfg.Name())),
	}, nil
}

func (s *Source) open() (*sql.DB, error) {
	db, err := sql.Open("mysql", s.cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to open mysql connection")
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Extract queries the table lazily and emits one package named after it
func (s *Source) Extract(ctx context.Context) (*core.PackageStream, error) {
	query := s.cfg.SQL()
	return core.NewStream(ctx, func(ctx context.Context, emit core.EmitFunc) error {
		db, err := s.open()
		if err != nil {
			return err
		}
		defer db.Close()

		s.logger.Info("running query", zap.String("host", s.cfg.Host), zap.String("query", query))
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "query failed").WithDetail("query", query)
		}
		defer rows.Close()

		tbl, err := base.ReadRows(rows)
		if err != nil {
			return err
		}
		if s.cfg.TrimPlaceholders {
			tbl.Map(base.TrimPlaceholders)
		}
		return emit(&core.DataPackage{Name: s.cfg.Table, Table: tbl})
	}), nil
}

// Check opens a connection and runs a constant query
func (s *Source) Check(ctx context.Context) (bool, error) {
	db, err := s.open()
	if err != nil {
		return false, err
	}
	defer db.Close()
	return base.PingQuery(ctx, db, base.ProbeQuery(Type))
}
