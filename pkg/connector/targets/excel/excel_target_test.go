package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/formats"
	"github.com/ajitpratap0/sluice/pkg/models"
)

func readBack(t *testing.T, path, sheet string) *models.Table {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	tbl, err := formats.ReadExcel(f, formats.ExcelOptions{Sheet: sheet})
	require.NoError(t, err)
	return tbl
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tgt, err := New(config.ConnectorSpec{"name": "out", "type": Type, "path": dir})
	require.NoError(t, err)

	tbl := models.NewTable("sku", "qty")
	tbl.AddRow("A-1", int64(3))
	require.NoError(t, tgt.Load(context.Background(), core.FromPackages(&core.DataPackage{Name: "stock", Table: tbl})))
	require.NoError(t, tgt.Load(context.Background(), core.FromPackages(&core.DataPackage{Name: "stock", Table: tbl})))

	got := readBack(t, filepath.Join(dir, "stock.xlsx"), formats.DefaultSheet)
	assert.Equal(t, []string{"sku", "qty"}, got.Columns)
	assert.Equal(t, 2, got.Len())
}

func TestLoadSheetName(t *testing.T) {
	dir := t.TempDir()
	tgt, err := New(config.ConnectorSpec{"name": "out", "type": Type, "path": dir, "sheet_name": "Export", "filename": "report"})
	require.NoError(t, err)

	tbl := models.NewTable("a")
	tbl.AddRow("x")
	require.NoError(t, tgt.Load(context.Background(), core.FromPackages(&core.DataPackage{Name: "ignored", Table: tbl})))

	got := readBack(t, filepath.Join(dir, "report.xlsx"), "Export")
	assert.Equal(t, []interface{}{"x"}, got.Rows[0])
}
