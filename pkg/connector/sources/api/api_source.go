// Package api provides a source issuing one GET request against a JSON HTTP
// API and tabulating the records found at a configurable path.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/base"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/json"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/models"
)

// Type is the registry discriminator
const Type = "api"

const (
	defaultTimeout   = 30 * time.Second
	defaultSeparator = "_"
	valueColumn      = "value"
)

// OAuth2Config enables the client-credentials grant
type OAuth2Config struct {
	TokenURL     string   `mapstructure:"token_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
}

// Config is the api source configuration
type Config struct {
	base.Identity `mapstructure:",squash"`
	BaseURL       string            `mapstructure:"baseurl"`
	Path          string            `mapstructure:"path"`
	URLVars       map[string]string `mapstructure:"urlvars"`
	Parameters    map[string]string `mapstructure:"parameters"`
	Headers       map[string]string `mapstructure:"headers"`
	// DataPath is a dot separated path to the records inside the response
	// body, e.g. "response.data.items". Numeric parts index arrays.
	DataPath    string        `mapstructure:"data_path"`
	PackageName string        `mapstructure:"package_name"`
	Separator   string        `mapstructure:"separator"`
	// Exclude lists keys dropped at any depth when flattening records
	Exclude     []string      `mapstructure:"exclude"`
	Timeout     time.Duration `mapstructure:"timeout"`
	OAuth2      *OAuth2Config `mapstructure:"oauth2"`
}

// SetDefaults fills separator and timeout
func (c *Config) SetDefaults() {
	if c.Separator == "" {
		c.Separator = defaultSeparator
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks required fields
func (c *Config) Validate() error {
	if err := base.Required(map[string]string{"baseurl": c.BaseURL}); err != nil {
		return err
	}
	if c.OAuth2 != nil {
		return base.Required(map[string]string{
			"oauth2.token_url": c.OAuth2.TokenURL,
			"oauth2.client_id": c.OAuth2.ClientID,
		})
	}
	return nil
}

// Source fetches one JSON document
type Source struct {
	base.Identity
	cfg    Config
	url    string
	logger *zap.Logger
}

// New builds an api source. The request URL is resolved eagerly so that
// undefined url variables fail construction.
func New(spec config.ConnectorSpec) (core.Source, error) {
	var cfg Config
	if err := base.Decode(spec, &cfg); err != nil {
		return nil, err
	}
	path, err := base.ExpandPath(cfg.Path, cfg.URLVars)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConstruction, "invalid api path")
	}
	u, err := base.BuildURL(cfg.BaseURL, path, cfg.Parameters)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConstruction, "invalid api url")
	}
	return &Source{
		Identity: cfg.Identity,
		cfg:      cfg,
		url:      u,
		logger:   logger.With(zap.String("component", "api_source"), zap.String("source", cfg.Name())),
	}, nil
}

// URL returns the fully resolved request URL
func (s *Source) URL() string { return s.url }

func (s *Source) client(ctx context.Context) *http.Client {
	hc := &http.Client{Timeout: s.cfg.Timeout}
	if s.cfg.OAuth2 == nil {
		return hc
	}
	cc := clientcredentials.Config{
		ClientID:     s.cfg.OAuth2.ClientID,
		ClientSecret: s.cfg.OAuth2.ClientSecret,
		TokenURL:     s.cfg.OAuth2.TokenURL,
		Scopes:       s.cfg.OAuth2.Scopes,
	}
	return cc.Client(context.WithValue(ctx, oauth2.HTTPClient, hc))
}

func (s *Source) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client(ctx).Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "request failed").WithDetail("url", s.url)
	}
	return resp, nil
}

// Extract requests the document when the stream is consumed and emits one
// package holding the flattened records.
func (s *Source) Extract(ctx context.Context) (*core.PackageStream, error) {
	name := s.cfg.PackageName
	if name == "" {
		name = s.Name()
	}
	return core.NewStream(ctx, func(ctx context.Context, emit core.EmitFunc) error {
		s.logger.Info("requesting api", zap.String("url", s.url))
		resp, err := s.get(ctx)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return errors.New(errors.ErrorTypeConnection,
				fmt.Sprintf("api returned status %d", resp.StatusCode)).
				WithDetail("url", s.url).
				WithDetail("body", string(body))
		}

		var doc interface{}
		if err := json.Decode(resp.Body, &doc); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to decode api response")
		}
		records, err := Lookup(doc, s.cfg.DataPath)
		if err != nil {
			return err
		}
		return emit(&core.DataPackage{Name: name, Table: Tabulate(records, s.cfg.Separator, s.cfg.Exclude...)})
	}), nil
}

// Check reports whether the endpoint answers with HTTP 200
func (s *Source) Check(ctx context.Context) (bool, error) {
	resp, err := s.get(ctx)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK, nil
}

// Lookup walks a dot separated path through decoded JSON
func Lookup(doc interface{}, path string) (interface{}, error) {
	if path == "" {
		return doc, nil
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case map[string]interface{}:
			next, ok := t[part]
			if !ok {
				return nil, errors.New(errors.ErrorTypeData, fmt.Sprintf("data_path element %q not found", part)).
					WithDetail("data_path", path)
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(t) {
				return nil, errors.New(errors.ErrorTypeData, fmt.Sprintf("data_path index %q out of range", part)).
					WithDetail("data_path", path)
			}
			cur = t[i]
		default:
			return nil, errors.New(errors.ErrorTypeData, fmt.Sprintf("data_path element %q is not an object or array", part)).
				WithDetail("data_path", path)
		}
	}
	return cur, nil
}

// Tabulate turns an array of records (or a single record) into a table.
// Nested values are flattened with sep; scalar records land in a "value"
// column. Keys in exclude are dropped. A null document yields an empty table.
func Tabulate(records interface{}, sep string, exclude ...string) *models.Table {
	tbl := models.NewTable()
	var items []interface{}
	switch t := records.(type) {
	case nil:
	case []interface{}:
		items = t
	default:
		items = []interface{}{t}
	}
	for _, item := range items {
		if _, ok := item.(map[string]interface{}); !ok {
			tbl.AddRecord([]string{valueColumn}, map[string]interface{}{valueColumn: json.Scalar(item)})
			continue
		}
		keys, flat := base.Flatten(item, sep, exclude...)
		for k, v := range flat {
			flat[k] = json.Scalar(v)
		}
		tbl.AddRecord(keys, flat)
	}
	return tbl
}
