package parquet

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterSource(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindSource,
		Description: "Parquet files of one directory, one package per file",
		Required:    []string{"path"},
		Optional:    []string{"name_pattern", "younger_than"},
		Checkable:   true,
	})
}
