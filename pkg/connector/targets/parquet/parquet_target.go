// Package parquet provides a target writing each package to a Parquet file.
package parquet

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
const Type = "parquet"

// Config is the parquet target configuration
type Config struct {
	base.Identity `mapstructure:",squash"`
	Path          string `mapstructure:"path"`
	Filename      string `mapstructure:"filename"`
}

// Validate checks required fields
func (c *Config) Validate() error {
	return base.Required(map[string]string{"path": c.Path})
}

// Target appends packages to <path>/<filename or package>.parquet
type Target struct {
	base.Identity
	files *base.FileTarget
}

// New builds a parquet target from its field map
func New(spec config.ConnectorSpec) (core.Target, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	return &Target{
		Identity: cfg.Identity,
		files: &base.FileTarget{
			Dir:      cfg.Path,
			Filename: cfg.Filename,
			Ext:      ".parquet",
			Read:     func(r io.Reader) (*models.Table, error) { return formats.ReadParquet(r) },
			Write:    formats.WriteParquet,
			Log:      logger.With(zap.String("component", "parquet_target"), zap.String("target", cfg.Name())),
		},
	}, nil
}

// Path returns the file a package is written to
func (t *Target) Path(pkgName string) string { return t.files.Path(pkgName) }

// Load writes every package of the stream
func (t *Target) Load(ctx context.Context, stream *core.PackageStream) error {
	return t.files.Load(ctx, stream)
}

// Check reports whether the target directory exists
func (t *Target) Check(ctx context.Context) (bool, error) { return t.files.Check(), nil }
