package snowflake

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterTarget(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindTarget,
		Description: "Snowflake tables created from the package columns and filled with batched inserts",
		Required:    []string{"account", "user", "password", "database", "schema"},
		Optional:    []string{"warehouse", "role", "table", "if_exists", "batch_size"},
		Checkable:   true,
	})
}
