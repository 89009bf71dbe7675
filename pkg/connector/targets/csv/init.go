package csv

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterTarget(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindTarget,
		Description: "CSV files in a directory, one per package, appended when present",
		Required:    []string{"path"},
		Optional:    []string{"filename", "separator", "decimal", "with_index"},
		Checkable:   true,
	})
}
