// Package postgresql provides a source selecting one table of a PostgreSQL database.
package postgresql

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Type is the registry discriminator
const Type = "postgresql"

const defaultPort = 5432

// Config is the postgresql source configuration
type Config struct {
	base.Identity     `mapstructure:",squash"`
	base.QueryOptions `mapstructure:",squash"`
	Host              string           `mapstructure:"host"`
	Port              int              `mapstructure:"port"`
	Database          string           `mapstructure:"database"`
	Credentials       base.Credentials `mapstructure:"credentials"`
	SSLMode           string           `mapstructure:"sslmode"`
	// DSN overrides host, port, database, credentials and sslmode
	DSN string `mapstructure:"dsn"`
}

// SetDefaults fills the port
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.DSN == "" {
		if err := base.Required(map[string]string{"host": c.Host}); err != nil {
			return err
		}
	}
	return c.QueryOptions.Validate()
}

// ConnString returns the pgx connection string
func (c *Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Credentials.User != "" {
		u.User = url.UserPassword(c.Credentials.User, c.Credentials.Password)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// Source selects rows of one table
type Source struct {
	base.Identity
	cfg    Config
	logger *zap.Logger
}

// New builds a postgresql source from its field map
func New(spec config.ConnectorSpec) (core.Source, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	return &Source{
		Identity: cfg.Identity,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "postgresql_source"), zap.String("source", cfg.Name())),
	}, nil
}

func (s *Source) connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(s.cfg.ConnString())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid postgresql connection settings")
	}
	poolConfig.MaxConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create connection pool")
	}
	return pool, nil
}

// Extract queries the table when the stream is first consumed and emits it
// as one package named after the table.
func (s *Source) Extract(ctx context.Context) (*core.PackageStream, error) {
	query := s.cfg.SQL()
	return core.NewStream(ctx, func(ctx context.Context, emit core.EmitFunc) error {
		pool, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		s.logger.Info("running query", zap.String("host", s.cfg.Host), zap.String("query", query))
		tbl, err := s.query(ctx, pool, query)
		if err != nil {
			return err
		}
		if s.cfg.TrimPlaceholders {
			tbl.Map(base.TrimPlaceholders)
		}
		return emit(&core.DataPackage{Name: s.cfg.Table, Table: tbl})
	}), nil
}

func (s *Source) query(ctx context.Context, pool *pgxpool.Pool, query string) (*models.Table, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "query failed").WithDetail("query", query)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	tbl := models.NewTable(cols...)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to decode row")
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		tbl.Rows = append(tbl.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to iterate rows")
	}
	return tbl, nil
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		// uuid
		return fmt.Sprintf("%x-%x-%x-%x-%x", t[0:4], t[4:6], t[6:8], t[8:10], t[10:16])
	default:
		return models.Normalize(v)
	}
}

// Check connects and runs a constant query
func (s *Source) Check(ctx context.Context) (bool, error) {
	pool, err := s.connect(ctx)
	if err != nil {
		return false, err
	}
	defer pool.Close()

	var one int
	if err := pool.QueryRow(ctx, base.ProbeQuery(Type)).Scan(&one); err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeConnection, "probe query failed")
	}
	return one == 1, nil
}
