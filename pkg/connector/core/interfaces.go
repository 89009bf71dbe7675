package core

import (
	"context"

	"github.com/ajitpratap0/sluice/pkg/models"
)

// ConnectorKind distinguishes the two sides of a job
type ConnectorKind string

const (
	KindSource ConnectorKind = "source"
	KindTarget ConnectorKind = "target"
)

// DataPackage is a named table travelling from a source to a target.
// The name usually becomes a file, table or object name on the target side.
type DataPackage struct {
	Name  string
	Table *models.Table
}

// Connector is the identity shared by sources and targets
type Connector interface {
	// Name returns the configured connector name
	Name() string
	// Type returns the registry discriminator the connector was built from
	Type() string
}

// Source produces data packages.
type Source interface {
	Connector

	// Extract starts producing packages. Work may be deferred until the
	// stream is consumed; failures that happen while producing surface from
	// the stream itself.
	Extract(ctx context.Context) (*PackageStream, error)
}

// Target consumes data packages.
type Target interface {
	Connector

	// Load writes every package of the stream.
	Load(ctx context.Context, stream *PackageStream) error
}

// Checker is implemented by connectors able to test reachability of their
// backing system without moving data.
type Checker interface {
	Check(ctx context.Context) (bool, error)
}
