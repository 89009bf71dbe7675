package parquet

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterTarget(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindTarget,
		Description: "Snappy-compressed Parquet files in a directory, one per package",
		Required:    []string{"path"},
		Optional:    []string{"filename"},
		Checkable:   true,
	})
}
