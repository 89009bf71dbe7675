package gcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
	"github.com/ajitpratap0/sluice/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		spec    config.ConnectorSpec
		wantKey string
		wantErr bool
	}{
		{"defaults", config.ConnectorSpec{"name": "g", "type": Type, "bucket": "b"}, "orders.csv", false},
		{"parquet lz4", config.ConnectorSpec{"name": "g", "type": Type, "bucket": "b", "prefix": "p/", "format": "parquet", "compression": "lz4"}, "p/orders.parquet.lz4", false},
		{"fixed filename", config.ConnectorSpec{"name": "g", "type": Type, "bucket": "b", "filename": "daily"}, "daily.csv", false},
		{"missing bucket", config.ConnectorSpec{"name": "g", "type": Type}, "", true},
		{"bad mode", config.ConnectorSpec{"name": "g", "type": Type, "bucket": "b", "if_exists": "truncate"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tgt, err := New(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConstruction))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, tgt.(*Target).Key("orders"))
		})
	}
}

func TestClientOptions(t *testing.T) {
	tgt, err := New(config.ConnectorSpec{"name": "g", "type": Type, "bucket": "b"})
	require.NoError(t, err)
	assert.Empty(t, tgt.(*Target).ClientOptions())

	tgt, err = New(config.ConnectorSpec{"name": "g", "type": Type, "bucket": "b", "credentials_file": "/k.json", "endpoint": "http://localhost:4443"})
	require.NoError(t, err)
	assert.Len(t, tgt.(*Target).ClientOptions(), 2)
}

func TestRegistered(t *testing.T) {
	assert.True(t, registry.Default().HasTarget(Type))
}
