// Package gcs provides a target writing each package as an object in a
// Google Cloud Storage bucket.
package gcs

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/logger"
)

// Type is the registry discriminator
const Type = "gcs"

// Config is the gcs target configuration
type Config struct {
	base.Identity      `mapstructure:",squash"`
	base.ObjectOptions `mapstructure:",squash"`
	Bucket             string `mapstructure:"bucket"`
	CredentialsFile    string `mapstructure:"credentials_file"`
	// Endpoint overrides the storage API endpoint, e.g. for an emulator
	Endpoint string `mapstructure:"endpoint"`
}

// Validate checks required fields
func (c *Config) Validate() error {
	return base.Required(map[string]string{"bucket": c.Bucket})
}

// Target writes one object per package
type Target struct {
	base.Identity
	cfg    Config
	logger *zap.Logger
}

// New builds a gcs target. No API call is made before Load or Check.
func New(spec config.ConnectorSpec) (core.Target, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	t := &Target{
		Identity: cfg.Identity,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "gcs_target"), zap.String("target", cfg.Name())),
	}
	if _, err := base.NewObjectWriter(nil, cfg.ObjectOptions, t.logger); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConstruction, "invalid gcs object options")
	}
	return t, nil
}

// ClientOptions returns the API options derived from the configuration
func (t *Target) ClientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if t.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(t.cfg.CredentialsFile))
	}
	if t.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(t.cfg.Endpoint))
	}
	return opts
}

func (t *Target) client(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx, t.ClientOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create storage client")
	}
	return client, nil
}

// Key returns the object name of a package
func (t *Target) Key(pkgName string) string {
	w, _ := base.NewObjectWriter(nil, t.cfg.ObjectOptions, t.logger)
	return w.Key(pkgName)
}

// Load writes every package of the stream
func (t *Target) Load(ctx context.Context, stream *core.PackageStream) error {
	client, err := t.client(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	w, err := base.NewObjectWriter(&bucketStore{bucket: client.Bucket(t.cfg.Bucket)}, t.cfg.ObjectOptions, t.logger)
	if err != nil {
		return err
	}
	return w.Load(ctx, stream)
}

// Check reads the bucket attributes
func (t *Target) Check(ctx context.Context) (bool, error) {
	client, err := t.client(ctx)
	if err != nil {
		return false, err
	}
	defer client.Close()

	if _, err := client.Bucket(t.cfg.Bucket).Attrs(ctx); err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeConnection, "bucket is not accessible").
			WithDetail("bucket", t.cfg.Bucket)
	}
	return true, nil
}

type bucketStore struct {
	bucket *storage.BucketHandle
}

func (b *bucketStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := b.bucket.Object(key).NewReader(ctx)
	if stderrors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *bucketStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	w := b.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
