package csv

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	// Register csv source connector in the global registry
	_ = registry.RegisterSource(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindSource,
		Description: "CSV files of one directory, one package per file",
		Required:    []string{"path"},
		Optional:    []string{"name_pattern", "younger_than", "separator", "decimal"},
		Checkable:   true,
	})
}
