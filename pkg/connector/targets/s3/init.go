package s3

import (
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterTarget(Type, New)
	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Type:        Type,
		Kind:        core.KindTarget,
		Description: "One object per package in an S3 or S3-compatible bucket",
		Required:    []string{"bucket"},
		Optional:    []string{"region", "endpoint", "prefix", "format", "compression", "filename", "if_exists", "separator", "decimal"},
		Checkable:   true,
	})
}
