package base

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/errors"
)

type sampleConfig struct {
	Identity    `mapstructure:",squash"`
	FileOptions `mapstructure:",squash"`
	Port        int               `mapstructure:"port"`
	Vars        map[string]string `mapstructure:"urlvars"`
}

func (c *sampleConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
}

func (c *sampleConfig) Validate() error {
	return Required(map[string]string{"path": c.Path})
}

func TestDecode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var cfg sampleConfig
		err := Decode(config.ConnectorSpec{
			"name":    "in",
			"type":    "csv",
			"path":    "/data",
			"urlvars": map[string]interface{}{"shop": "X1"},
		}, &cfg)
		require.NoError(t, err)
		assert.Equal(t, "in", cfg.Name())
		assert.Equal(t, "csv", cfg.Type())
		assert.Equal(t, "in [csv]", cfg.String())
		assert.Equal(t, "/data", cfg.Path)
		assert.Equal(t, 5432, cfg.Port)
		assert.Equal(t, "X1", cfg.Vars["shop"])
	})

	t.Run("weak typing", func(t *testing.T) {
		var cfg sampleConfig
		require.NoError(t, Decode(config.ConnectorSpec{"type": "csv", "path": "/d", "port": "6543"}, &cfg))
		assert.Equal(t, 6543, cfg.Port)
	})

	t.Run("unknown field", func(t *testing.T) {
		var cfg sampleConfig
		err := Decode(config.ConnectorSpec{"type": "csv", "path": "/d", "pathh": "/typo"}, &cfg)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConstruction))
		assert.Contains(t, err.Error(), "pathh")
	})

	t.Run("missing required", func(t *testing.T) {
		var cfg sampleConfig
		err := Decode(config.ConnectorSpec{"type": "csv"}, &cfg)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConstruction))
		assert.Contains(t, err.Error(), "path")
	})
}

func TestParseAge(t *testing.T) {
	a, err := ParseAge("1y2m1w3d4H5M6S")
	require.NoError(t, err)
	assert.Equal(t, Age{Years: 1, Months: 2, Weeks: 1, Days: 3, Hours: 4, Minutes: 5, Seconds: 6}, a)

	a, err = ParseAge("2d")
	require.NoError(t, err)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC), a.Before(now))

	a, err = ParseAge("")
	require.NoError(t, err)
	assert.True(t, a.IsZero())

	for _, bad := range []string{"3x", "1d2y", "abc"} {
		_, err := ParseAge(bad)
		assert.Error(t, err, bad)
	}
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestFileSelector(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "sales_2024.csv"), now)
	touch(t, filepath.Join(dir, "sales_old.CSV"), now.Add(-72*time.Hour))
	touch(t, filepath.Join(dir, "stock.csv"), now)
	touch(t, filepath.Join(dir, "notes.txt"), now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))

	t.Run("suffix only", func(t *testing.T) {
		s, err := NewFileSelector(FileOptions{Path: dir}, ".csv")
		require.NoError(t, err)
		files, err := s.Files()
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "sales_2024.csv"),
			filepath.Join(dir, "sales_old.CSV"),
			filepath.Join(dir, "stock.csv"),
		}, files)
	})

	t.Run("pattern and age", func(t *testing.T) {
		s, err := NewFileSelector(FileOptions{Path: dir, NamePattern: "sales_*", YoungerThan: "1d"}, ".csv")
		require.NoError(t, err)
		files, err := s.Files()
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "sales_2024.csv")}, files)
	})

	t.Run("check", func(t *testing.T) {
		s, err := NewFileSelector(FileOptions{Path: dir}, ".csv")
		require.NoError(t, err)
		assert.True(t, s.Check())

		s, err = NewFileSelector(FileOptions{Path: filepath.Join(dir, "missing")}, ".csv")
		require.NoError(t, err)
		assert.False(t, s.Check())
		_, err = s.Files()
		assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewFileSelector(FileOptions{}, ".csv")
		assert.Error(t, err)
		_, err = NewFileSelector(FileOptions{Path: dir, YoungerThan: "soon"}, ".csv")
		assert.Error(t, err)
		_, err = NewFileSelector(FileOptions{Path: dir, NamePattern: "[bad"}, ".csv")
		assert.Error(t, err)
	})

	assert.Equal(t, "sales_2024", Stem(filepath.Join(dir, "sales_2024.csv")))
}

func TestQueryOptionsSQL(t *testing.T) {
	tests := []struct {
		name string
		q    QueryOptions
		want string
	}{
		{"all columns", QueryOptions{Schema: "s", Table: "t"}, "SELECT * FROM s.t"},
		{"columns", QueryOptions{Schema: "s", Table: "t", Columns: []string{"a", "b"}}, "SELECT a, b FROM s.t"},
		{"where and limit", QueryOptions{Schema: "s", Table: "t", Where: "a > 1", Limit: 10}, "SELECT * FROM s.t WHERE a > 1 LIMIT 10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.SQL())
		})
	}

	assert.Error(t, QueryOptions{Table: "t"}.Validate())
	assert.Error(t, QueryOptions{Schema: "s", Table: "t", Limit: -1}.Validate())
	assert.NoError(t, QueryOptions{Schema: "s", Table: "t"}.Validate())
}

func TestProbeQuery(t *testing.T) {
	assert.Equal(t, "SELECT 1", ProbeQuery("postgresql"))
	assert.Equal(t, "SELECT 1 FROM SYSIBM.SYSDUMMY1", ProbeQuery("DB2"))
	assert.Equal(t, "SELECT 1 FROM SYS.DUMMY", ProbeQuery("hana"))
	assert.Equal(t, "SELECT 1 FROM DUAL", ProbeQuery("memsql"))
}

func TestTrimPlaceholders(t *testing.T) {
	assert.Equal(t, "", TrimPlaceholders("     "))
	assert.Equal(t, "", TrimPlaceholders("----"))
	assert.Equal(t, "- -", TrimPlaceholders("- -"))
	assert.Equal(t, " a ", TrimPlaceholders(" a "))
	assert.Equal(t, int64(3), TrimPlaceholders(int64(3)))
}

func TestExpandPathAndBuildURL(t *testing.T) {
	p, err := ExpandPath("/shops/{shop}/reviews", map[string]string{"shop": "X 1"})
	require.NoError(t, err)
	assert.Equal(t, "/shops/X%201/reviews", p)

	_, err = ExpandPath("/shops/{shop}", nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	u, err := BuildURL("https://api.example.com/", p, map[string]string{"page": "2", "lang": "de"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/shops/X%201/reviews?lang=de&page=2", u)

	_, err = BuildURL("not a url", "/x", nil)
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	doc := map[string]interface{}{
		"id": 1,
		"customer": map[string]interface{}{
			"name":   "Ada",
			"secret": "x",
		},
		"tags": []interface{}{"a", "b"},
	}
	keys, flat := Flatten(doc, "_", "secret")

	assert.Equal(t, []string{"customer_name", "id", "tags_0", "tags_1"}, keys)
	assert.Equal(t, "Ada", flat["customer_name"])
	assert.Equal(t, "b", flat["tags_1"])
	_, present := flat["customer_secret"]
	assert.False(t, present)
}
