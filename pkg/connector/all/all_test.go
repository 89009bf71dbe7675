package all

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/sluice/pkg/connector/registry"
)

func TestBuiltinsRegistered(t *testing.T) {
	assert.Equal(t,
		[]string{"api", "csv", "excel", "mongodb", "mysql", "parquet", "postgresql"},
		registry.ListSources())
	assert.Equal(t,
		[]string{"bigquery", "csv", "excel", "gcs", "parquet", "s3", "snowflake"},
		registry.ListTargets())
	assert.Len(t, registry.ListConnectorInfo(), 14)
}
