// Package bigquery provides a target loading each package into a BigQuery
// table through a newline-delimited JSON load job.
package bigquery

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/json"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Type is the registry discriminator
const Type = "bigquery"

// Write modes for existing tables
const (
	IfExistsReplace = "replace"
	IfExistsAppend  = "append"
	IfExistsFail    = "fail"
)

const loadTimeout = 10 * time.Minute

// Config is the bigquery target configuration
type Config struct {
	base.Identity   `mapstructure:",squash"`
	ProjectID       string `mapstructure:"project_id"`
	Dataset         string `mapstructure:"dataset"`
	CredentialsFile string `mapstructure:"credentials_file"`
	// Table defaults to the package name
	Table    string `mapstructure:"table"`
	Location string `mapstructure:"location"`
	IfExists string `mapstructure:"if_exists"`
}

// SetDefaults fills the write mode
func (c *Config) SetDefaults() {
	if c.IfExists == "" {
		c.IfExists = IfExistsReplace
	}
	c.IfExists = strings.ToLower(c.IfExists)
}

// Validate checks required fields and the write mode
func (c *Config) Validate() error {
	if err := base.Required(map[string]string{"project_id": c.ProjectID, "dataset": c.Dataset}); err != nil {
		return err
	}
	if _, err := Disposition(c.IfExists); err != nil {
		return err
	}
	return nil
}

// Disposition maps a write mode onto the load job disposition
func Disposition(ifExists string) (bigquery.TableWriteDisposition, error) {
	switch ifExists {
	case IfExistsReplace:
		return bigquery.WriteTruncate, nil
	case IfExistsAppend:
		return bigquery.WriteAppend, nil
	case IfExistsFail:
		return bigquery.WriteEmpty, nil
	default:
		return "", errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("if_exists must be replace, append or fail, got %q", ifExists))
	}
}

// Target loads packages into tables of one dataset
type Target struct {
	base.Identity
	cfg    Config
	logger *zap.Logger
}

// New builds a bigquery target. No API call is made before Load or Check.
func New(spec config.ConnectorSpec) (core.Target, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	return &Target{
		Identity: cfg.Identity,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "bigquery_target"), zap.String("target", cfg.Name())),
	}, nil
}

func (t *Target) client(ctx context.Context) (*bigquery.Client, error) {
	var opts []option.ClientOption
	if t.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(t.cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, t.cfg.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create bigquery client")
	}
	if t.cfg.Location != "" {
		client.Location = t.cfg.Location
	}
	return client, nil
}

// TableName returns the destination table of a package
func (t *Target) TableName(pkgName string) string {
	if t.cfg.Table != "" {
		return t.cfg.Table
	}
	return SanitizeName(pkgName)
}

// Load runs one load job per package. When several packages share a table
// within one Load, only the first applies the configured write mode and the
// rest append.
func (t *Target) Load(ctx context.Context, stream *core.PackageStream) error {
	client, err := t.client(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	disposition, _ := Disposition(t.cfg.IfExists)
	written := map[string]bool{}
	return stream.Each(ctx, func(pkg *core.DataPackage) error {
		table := t.TableName(pkg.Name)
		d := disposition
		if written[table] {
			d = bigquery.WriteAppend
		}
		if err := t.loadTable(ctx, client, table, pkg.Table, d); err != nil {
			return err
		}
		written[table] = true
		return nil
	})
}

func (t *Target) loadTable(ctx context.Context, client *bigquery.Client, table string, tbl *models.Table, d bigquery.TableWriteDisposition) error {
	var buf bytes.Buffer
	if err := json.WriteLines(&buf, Records(tbl)); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode rows")
	}

	source := bigquery.NewReaderSource(&buf)
	source.SourceFormat = bigquery.JSON
	source.AutoDetect = true

	loader := client.Dataset(t.cfg.Dataset).Table(table).LoaderFrom(source)
	loader.WriteDisposition = d
	loader.CreateDisposition = bigquery.CreateIfNeeded

	t.logger.Info("submitting load job",
		zap.String("project", t.cfg.ProjectID),
		zap.String("table", t.cfg.Dataset+"."+table),
		zap.String("disposition", string(d)),
		zap.Int("rows", tbl.Len()))

	job, err := loader.Run(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeLoad, "failed to submit load job").WithDetail("table", table)
	}
	jobCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	status, err := job.Wait(jobCtx)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeLoad, "load job failed or timed out").WithDetail("table", table)
	}
	if status.Err() != nil {
		for i, jobErr := range status.Errors {
			t.logger.Error("load job error detail",
				zap.Int("error_index", i),
				zap.String("message", jobErr.Message),
				zap.String("reason", jobErr.Reason))
		}
		return errors.Wrap(status.Err(), errors.ErrorTypeLoad, "load job failed").
			WithDetail("table", table).
			WithDetail("job_id", job.ID())
	}
	t.logger.Info("load job completed", zap.String("job_id", job.ID()))
	return nil
}

// Check runs SELECT 1 in the project
func (t *Target) Check(ctx context.Context) (bool, error) {
	client, err := t.client(ctx)
	if err != nil {
		return false, err
	}
	defer client.Close()

	it, err := client.Query(base.ProbeQuery(Type)).Read(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeConnection, "probe query failed")
	}
	var row []bigquery.Value
	if err := it.Next(&row); err != nil {
		if err == iterator.Done {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrorTypeConnection, "probe query failed")
	}
	return true, nil
}

var invalidName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeName turns an arbitrary label into a valid BigQuery column or
// table name: invalid characters become "_" and a leading digit is prefixed
// with "_".
func SanitizeName(s string) string {
	s = invalidName.ReplaceAllString(s, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "_" + s
	}
	return s
}

// Records converts rows to JSON objects keyed by sanitized column names.
// Null cells are omitted so that autodetect does not see them.
func Records(tbl *models.Table) []interface{} {
	names := make([]string, len(tbl.Columns))
	for i, c := range tbl.Columns {
		names[i] = SanitizeName(c)
	}
	out := make([]interface{}, 0, tbl.Len())
	for _, row := range tbl.Rows {
		rec := make(map[string]interface{}, len(names))
		for i, n := range names {
			if i < len(row) && row[i] != nil {
				rec[n] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}
