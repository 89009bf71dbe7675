// Package excel provides a source reading one worksheet of every matching
// workbook in a directory.
package excel

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
const Type = "excel"

// Config is the excel source configuration
type Config struct {
	base.Identity    `mapstructure:",squash"`
	base.FileOptions `mapstructure:",squash"`
	// Sheet is a sheet name or a zero-based sheet index
	Sheet string `mapstructure:"sheet"`
}

// Source reads .xlsx files
type Source struct {
	base.Identity
	sheet    string
	selector *base.FileSelector
	logger   *zap.Logger
}

// New builds an excel source from its field map
func New(spec config.ConnectorSpec) (core.Source, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	sel, err := base.NewFileSelector(cfg.FileOptions, ".xlsx")
	if err != nil {
		return nil, err
	}
	return &Source{
		Identity: cfg.Identity,
		sheet:    cfg.Sheet,
		selector: sel,
		logger:   logger.With(zap.String("component", "excel_source"), zap.String("source", cfg.Name())),
	}, nil
}

// Extract streams one package per workbook
func (s *Source) Extract(ctx context.Context) (*core.PackageStream, error) {
	opts := formats.ExcelOptions{Sheet: s.sheet}
	return base.ExtractFiles(ctx, s.selector, s.logger, func(r io.Reader) (*models.Table, error) {
		return formats.ReadExcel(r, opts)
	})
}

// Check reports whether the source directory exists
func (s *Source) Check(ctx context.Context) (bool, error) {
	return s.selector.Check(), nil
}
