package postgresql

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	// Register PostgreSQL source connector in the global registry
	_ = registry.RegisterSource(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindSource,
		Description: "One PostgreSQL table, optionally filtered and limited",
		Required:    []string{"host", "schema", "table"},
		Optional:    []string{"port", "database", "credentials", "sslmode", "dsn", "columns", "where", "limit", "trim_placeholders"},
		Checkable:   true,
	})
}
