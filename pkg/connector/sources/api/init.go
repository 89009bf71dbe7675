package api

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterSource(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindSource,
		Description: "JSON HTTP API, records at data_path flattened into one package",
		Required:    []string{"baseurl"},
		Optional:    []string{"path", "urlvars", "parameters", "headers", "data_path", "package_name", "separator", "exclude", "timeout", "oauth2"},
		Checkable:   true,
	})
}
