// Package csv provides a source reading every matching CSV file of a directory.
package csv

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/formats"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Type is the registry discriminator
const Type = "csv"

// Config is the csv source configuration
type Config struct {
	base.Identity    `mapstructure:",squash"`
	base.FileOptions `mapstructure:",squash"`
	Separator        string `mapstructure:"separator"`
	Decimal          string `mapstructure:"decimal"`
}

func (c *Config) csvOptions() formats.CSVOptions {
	return formats.CSVOptions{Separator: c.Separator, Decimal: c.Decimal}
}

// SetDefaults fills separator and decimal mark
func (c *Config) SetDefaults() {
	o := c.csvOptions()
	o.SetDefaults()
	c.Separator, c.Decimal = o.Separator, o.Decimal
}

// Validate checks the delimiter settings
func (c *Config) Validate() error {
	return c.csvOptions().Validate()
}

// Source reads .csv files
type Source struct {
	base.Identity
	cfg      Config
	selector *base.FileSelector
	logger   *zap.Logger
}

// New builds a csv source from its field map
func New(spec config.ConnectorSpec) (core.Source, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	sel, err := base.NewFileSelector(cfg.FileOptions, ".csv")
	if err != nil {
		return nil, err
	}
	return &Source{
		Identity: cfg.Identity,
		cfg:      cfg,
		selector: sel,
		logger:   logger.With(zap.String("component", "csv_source"), zap.String("source", cfg.Name())),
	}, nil
}

// Extract streams one package per file
func (s *Source) Extract(ctx context.Context) (*core.PackageStream, error) {
	opts := s.cfg.csvOptions()
	return base.ExtractFiles(ctx, s.selector, s.logger, func(r io.Reader) (*models.Table, error) {
		return formats.ReadCSV(r, opts)
	})
}

// Check reports whether the source directory exists
func (s *Source) Check(ctx context.Context) (bool, error) {
	return s.selector.Check(), nil
}
