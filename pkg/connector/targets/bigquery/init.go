package bigquery

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterTarget(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindTarget,
		Description: "BigQuery tables, one NDJSON load job per package with schema autodetect",
		Required:    []string{"project_id", "dataset"},
		Optional:    []string{"credentials_file", "table", "location", "if_exists"},
		Checkable:   true,
	})
}
