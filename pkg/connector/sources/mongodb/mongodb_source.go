// Package mongodb provides a source reading the documents of one MongoDB
// collection.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/json"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Type is the registry discriminator
const Type = "mongodb"

const defaultSeparator = "_"

// Config is the mongodb source configuration
type Config struct {
	base.Identity `mapstructure:",squash"`
	URI           string `mapstructure:"uri"`
	Database      string `mapstructure:"database"`
	Collection    string `mapstructure:"collection"`
	// Filter is either a mapping or an Extended JSON document string
	Filter    interface{} `mapstructure:"filter"`
	Limit     int64       `mapstructure:"limit"`
	Separator string      `mapstructure:"separator"`
	// Exclude lists document keys dropped at any depth
	Exclude []string `mapstructure:"exclude"`
}

// SetDefaults fills the flatten separator
func (c *Config) SetDefaults() {
	if c.Separator == "" {
		c.Separator = defaultSeparator
	}
}

// Validate checks required fields
func (c *Config) Validate() error {
	if err := base.Required(map[string]string{
		"uri":        c.URI,
		"database":   c.Database,
		"collection": c.Collection,
	}); err != nil {
		return err
	}
	if c.Limit < 0 {
		return errors.New(errors.ErrorTypeConfig, "limit must not be negative")
	}
	return nil
}

// Source reads one collection
type Source struct {
	base.Identity
	cfg    Config
	filter bson.D
	logger *zap.Logger
}

// New builds a mongodb source. The filter is parsed eagerly.
func New(spec config.ConnectorSpec) (core.Source, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	filter, err := ParseFilter(cfg.Filter)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConstruction, "invalid mongodb filter")
	}
	return &Source{
		Identity: cfg.Identity,
		cfg:      cfg,
		filter:   filter,
		logger:   logger.With(zap.String("component", "mongodb_source"), zap.String("source", cfg.Name())),
	}, nil
}

// ParseFilter converts a configured filter into a BSON document. Extended
// JSON operators such as {"$oid": ...} and {"$date": ...} are honoured.
func ParseFilter(f interface{}) (bson.D, error) {
	var raw []byte
	switch t := f.(type) {
	case nil:
		return bson.D{}, nil
	case string:
		if t == "" {
			return bson.D{}, nil
		}
		raw = []byte(t)
	case map[string]interface{}:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to encode filter")
		}
		raw = b
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("filter must be a mapping or a string, got %T", f))
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse filter")
	}
	return doc, nil
}

func (s *Source) connect(ctx context.Context) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to mongodb")
	}
	return client, nil
}

// Extract reads the collection lazily into one package named after it
func (s *Source) Extract(ctx context.Context) (*core.PackageStream, error) {
	return core.NewStream(ctx, func(ctx context.Context, emit core.EmitFunc) error {
		client, err := s.connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		opts := options.Find()
		if s.cfg.Limit > 0 {
			opts.SetLimit(s.cfg.Limit)
		}
		s.logger.Info("reading collection",
			zap.String("database", s.cfg.Database),
			zap.String("collection", s.cfg.Collection))
		coll := client.Database(s.cfg.Database).Collection(s.cfg.Collection)
		cursor, err := coll.Find(ctx, s.filter, opts)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "find failed")
		}
		defer cursor.Close(ctx)

		tbl := models.NewTable()
		for cursor.Next(ctx) {
			var doc bson.M
			if err := cursor.Decode(&doc); err != nil {
				return errors.Wrap(err, errors.ErrorTypeData, "failed to decode document")
			}
			keys, flat := base.Flatten(Plain(doc), s.cfg.Separator, s.cfg.Exclude...)
			tbl.AddRecord(keys, flat)
		}
		if err := cursor.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "cursor failed")
		}
		return emit(&core.DataPackage{Name: s.cfg.Collection, Table: tbl})
	}), nil
}

// Check connects and pings the primary
func (s *Source) Check(ctx context.Context) (bool, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	if err := client.Ping(ctx, nil); err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeConnection, "ping failed")
	}
	return true, nil
}

// Plain converts decoded BSON into plain maps, slices and scalars
func Plain(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = Plain(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = Plain(e)
		}
		return out
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = Plain(e.Value)
		}
		return out
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Plain(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Plain(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return int64(t.T)
	case primitive.Decimal128:
		return t.String()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return models.Normalize(v)
	}
}
