package base

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/models"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.objects[key]
	return d, ok, nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func onePackage(name string, id int64) *core.PackageStream {
	tbl := models.NewTable("id")
	tbl.AddRow(id)
	return core.FromPackages(&core.DataPackage{Name: name, Table: tbl})
}

func TestObjectWriterKey(t *testing.T) {
	tests := []struct {
		opts ObjectOptions
		want string
	}{
		{ObjectOptions{}, "orders.csv"},
		{ObjectOptions{Prefix: "/raw/daily/", Format: "parquet"}, "raw/daily/orders.parquet"},
		{ObjectOptions{Compression: "gzip"}, "orders.csv.gz"},
		{ObjectOptions{Filename: "all.txt", Compression: "zstd"}, "all.csv.zst"},
	}
	for _, tt := range tests {
		w, err := NewObjectWriter(newMemStore(), tt.opts, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, tt.want, w.Key("orders"))
	}
}

func TestObjectWriterOptionErrors(t *testing.T) {
	for _, opts := range []ObjectOptions{
		{Format: "avro"},
		{Compression: "brotli"},
		{IfExists: "fail"},
		{Separator: "::"},
	} {
		_, err := NewObjectWriter(newMemStore(), opts, zap.NewNop())
		assert.Error(t, err, "%+v", opts)
	}
}

func TestObjectWriterAppend(t *testing.T) {
	for _, c := range []string{"none", "gzip", "lz4", "zstd"} {
		t.Run(c, func(t *testing.T) {
			store := newMemStore()
			w, err := NewObjectWriter(store, ObjectOptions{Compression: c}, zap.NewNop())
			require.NoError(t, err)

			require.NoError(t, w.Load(context.Background(), onePackage("p", 1)))
			require.NoError(t, w.Load(context.Background(), onePackage("p", 2)))

			got, err := w.decode(store.objects[w.Key("p")])
			require.NoError(t, err)
			assert.Equal(t, []interface{}{int64(1), int64(2)}, got.Column("id"))
		})
	}
}

func TestObjectWriterReplace(t *testing.T) {
	store := newMemStore()
	w, err := NewObjectWriter(store, ObjectOptions{Format: "parquet", IfExists: "replace"}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, w.Load(context.Background(), onePackage("p", 1)))
	require.NoError(t, w.Load(context.Background(), onePackage("p", 2)))

	got, err := w.decode(store.objects["p.parquet"])
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(2)}, got.Column("id"))
	assert.Equal(t, "application/octet-stream", store.types["p.parquet"])
}
