package mysql

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterSource(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindSource,
		Description: "One MySQL or MariaDB table, optionally filtered and limited",
		Required:    []string{"host", "schema", "table"},
		Optional:    []string{"port", "database", "credentials", "tls", "columns", "where", "limit", "trim_placeholders"},
		Checkable:   true,
	})
}
