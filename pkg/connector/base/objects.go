package base

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/compression"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/formats"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Object write modes
const (
	IfExistsAppend  = "append"
	IfExistsReplace = "replace"
)

// ObjectStore is the minimal blob API object-storage targets adapt to
type ObjectStore interface {
	// Get returns the object body, or found=false when the key does not exist
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// ObjectOptions are the layout fields shared by object-storage targets
type ObjectOptions struct {
	Prefix      string `mapstructure:"prefix"`
	Format      string `mapstructure:"format"`
	Compression string `mapstructure:"compression"`
	Filename    string `mapstructure:"filename"`
	IfExists    string `mapstructure:"if_exists"`
	Separator   string `mapstructure:"separator"`
	Decimal     string `mapstructure:"decimal"`
}

// ObjectWriter encodes packages into objects named
// <prefix>/<filename or package><format ext><compression ext>.
type ObjectWriter struct {
	Store       ObjectStore
	Prefix      string
	Filename    string
	Format      formats.Format
	Compression compression.Algorithm
	Append      bool
	CSV         formats.CSVOptions
	Log         *zap.Logger
}

// NewObjectWriter validates opts and binds them to store
func NewObjectWriter(store ObjectStore, opts ObjectOptions, log *zap.Logger) (*ObjectWriter, error) {
	f, err := formats.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	c, err := compression.Parse(opts.Compression)
	if err != nil {
		return nil, err
	}
	mode := strings.ToLower(opts.IfExists)
	switch mode {
	case "":
		mode = IfExistsAppend
	case IfExistsAppend, IfExistsReplace:
	default:
		return nil, errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("if_exists must be %q or %q, got %q", IfExistsAppend, IfExistsReplace, opts.IfExists))
	}
	csv := formats.CSVOptions{Separator: opts.Separator, Decimal: opts.Decimal}
	csv.SetDefaults()
	if err := csv.Validate(); err != nil {
		return nil, err
	}
	return &ObjectWriter{
		Store:       store,
		Prefix:      strings.Trim(opts.Prefix, "/"),
		Filename:    opts.Filename,
		Format:      f,
		Compression: c,
		Append:      mode == IfExistsAppend,
		CSV:         csv,
		Log:         log,
	}, nil
}

// Key returns the object key of a package
func (w *ObjectWriter) Key(pkgName string) string {
	name := w.Filename
	if name == "" {
		name = pkgName
	}
	name = strings.TrimSuffix(name, path.Ext(name)) + w.Format.Extension() + w.Compression.Extension()
	if w.Prefix == "" {
		return name
	}
	return path.Join(w.Prefix, name)
}

// Load writes every package of the stream
func (w *ObjectWriter) Load(ctx context.Context, stream *core.PackageStream) error {
	return stream.Each(ctx, func(pkg *core.DataPackage) error {
		key := w.Key(pkg.Name)
		w.Log.Info("loading package into object", zap.String("package", pkg.Name), zap.String("key", key))
		return w.writePackage(ctx, key, pkg.Table)
	})
}

func (w *ObjectWriter) writePackage(ctx context.Context, key string, tbl *models.Table) error {
	if w.Append {
		existing, found, err := w.Store.Get(ctx, key)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeLoad, "failed to read existing object").WithDetail("key", key)
		}
		if found {
			prev, err := w.decode(existing)
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeLoad, "failed to decode existing object").WithDetail("key", key)
			}
			tbl = prev.Append(tbl)
		}
	}
	data, err := w.encode(tbl)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeLoad, "failed to encode package").WithDetail("key", key)
	}
	if err := w.Store.Put(ctx, key, data, w.contentType()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeLoad, "failed to write object").WithDetail("key", key)
	}
	return nil
}

func (w *ObjectWriter) encode(tbl *models.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := formats.Encode(&buf, w.Format, tbl, w.CSV); err != nil {
		return nil, err
	}
	return compression.Compress(w.Compression, buf.Bytes())
}

func (w *ObjectWriter) decode(data []byte) (*models.Table, error) {
	raw, err := compression.Decompress(w.Compression, data)
	if err != nil {
		return nil, err
	}
	return formats.Decode(bytes.NewReader(raw), w.Format, w.CSV)
}

func (w *ObjectWriter) contentType() string {
	switch w.Compression {
	case compression.Gzip:
		return "application/gzip"
	case compression.Zstd:
		return "application/zstd"
	case compression.LZ4:
		return "application/x-lz4"
	}
	switch w.Format {
	case formats.CSV:
		return "text/csv"
	case formats.Excel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
