// Package s3 provides a target writing each package as an object in an S3
// (or S3-compatible) bucket.
package s3

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/logger"
)

// Type is the registry discriminator
const Type = "s3"

// Config is the s3 target configuration
type Config struct {
	base.Identity      `mapstructure:",squash"`
	base.ObjectOptions `mapstructure:",squash"`
	Bucket             string `mapstructure:"bucket"`
	Region             string `mapstructure:"region"`
	// Endpoint targets S3-compatible stores such as MinIO; path-style
	// addressing is used when it is set.
	Endpoint string `mapstructure:"endpoint"`
}

// Validate checks required fields
func (c *Config) Validate() error {
	return base.Required(map[string]string{"bucket": c.Bucket})
}

// Target uploads one object per package
type Target struct {
	base.Identity
	cfg    Config
	opts   base.ObjectOptions
	logger *zap.Logger
}

// New builds an s3 target. Format, compression and mode are validated here;
// no AWS call is made before Load or Check.
func New(spec config.ConnectorSpec) (core.Target, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	t := &Target{
		Identity: cfg.Identity,
		cfg:      cfg,
		opts:     cfg.ObjectOptions,
		logger:   logger.With(zap.String("component", "s3_target"), zap.String("target", cfg.Name())),
	}
	if _, err := base.NewObjectWriter(nil, cfg.ObjectOptions, t.logger); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConstruction, "invalid s3 object options")
	}
	return t, nil
}

func (t *Target) client(ctx context.Context) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if t.cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(t.cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to load aws configuration")
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if t.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(t.cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Key returns the object key of a package
func (t *Target) Key(pkgName string) string {
	w, _ := base.NewObjectWriter(nil, t.opts, t.logger)
	return w.Key(pkgName)
}

// Load uploads every package of the stream
func (t *Target) Load(ctx context.Context, stream *core.PackageStream) error {
	client, err := t.client(ctx)
	if err != nil {
		return err
	}
	w, err := base.NewObjectWriter(&bucketStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   t.cfg.Bucket,
	}, t.opts, t.logger)
	if err != nil {
		return err
	}
	return w.Load(ctx, stream)
}

// Check issues HeadBucket
func (t *Target) Check(ctx context.Context) (bool, error) {
	client, err := t.client(ctx)
	if err != nil {
		return false, err
	}
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(t.cfg.Bucket)}); err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeConnection, "bucket is not accessible").
			WithDetail("bucket", t.cfg.Bucket)
	}
	return true, nil
}

type bucketStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

func (b *bucketStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if stderrors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *bucketStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}
