package mongodb

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterSource(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindSource,
		Description: "Documents of one MongoDB collection, flattened into columns",
		Required:    []string{"uri", "database", "collection"},
		Optional:    []string{"filter", "limit", "separator", "exclude"},
		Checkable:   true,
	})
}
