// Package parquet provides a source reading every matching parquet file of a directory.
package parquet

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/formats"
	"github.com/ajitpratap0/sluice/pkg/logger"
)

// Type is the registry discriminator
const Type = "parquet"

// Config is the parquet source configuration
type Config struct {
	base.Identity    `mapstructure:",squash"`
	base.FileOptions `mapstructure:",squash"`
}

// Source reads .parquet files
type Source struct {
	base.Identity
	selector *base.FileSelector
	logger   *zap.Logger
}

// New builds a parquet source from its field map
func New(spec config.ConnectorSpec) (core.Source, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	sel, err := base.NewFileSelector(cfg.FileOptions, ".parquet")
	if err != nil {
		return nil, err
	}
	return &Source{
		Identity: cfg.Identity,
		selector: sel,
		logger:   logger.With(zap.String("component", "parquet_source"), zap.String("source", cfg.Name())),
	}, nil
}

// Extract streams one package per file
func (s *Source) Extract(ctx context.Context) (*core.PackageStream, error) {
	return base.ExtractFiles(ctx, s.selector, s.logger, formats.ReadParquet)
}

// Check reports whether the source directory exists
func (s *Source) Check(ctx context.Context) (bool, error) {
	return s.selector.Check(), nil
}
