package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sluice/pkg/env"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeJobs(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(in, 0o750))
	require.NoError(t, os.MkdirAll(out, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(in, "q1.csv"), []byte("id,amount\n1,10\n"), 0o600))

	jobs := `
- name: orders
  tags: [daily]
  source: {name: orders_csv, type: csv, path: ` + in + `}
  target: {name: orders_out, type: csv, path: ` + out + `}
- tags: [daily]
  source: {name: orphan, type: csv, path: ` + in + `}
`
	path := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(jobs), 0o600))
	t.Setenv(env.VarName(env.JobsConfig), path)
	t.Setenv(env.VarName(env.LogPath), filepath.Join(dir, "logs"))
	return dir
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Sluice v"+version)
}

func TestList(t *testing.T) {
	out, err := runCLI(t, "list", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "postgresql"`)
	assert.Contains(t, out, `"kind": "target"`)

	out, err = runCLI(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "snowflake")
}

func TestDebug(t *testing.T) {
	writeJobs(t)

	out, err := runCLI(t, "debug", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "orders"`)
	assert.Contains(t, out, `"creatable": true`)
	assert.Contains(t, out, `"position": 1`)

	out, err = runCLI(t, "debug", "--job", "orders")
	require.NoError(t, err)
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "Job specs without a name")

	_, err = runCLI(t, "debug", "--output", "xml")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := writeJobs(t)
	metricsFile := filepath.Join(dir, "sluice.prom")

	out, err := runCLI(t, "run", "--tag", "daily", "--metrics-file", metricsFile, "--output", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "status: succeeded")

	data, err := os.ReadFile(filepath.Join(dir, "out", "q1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,amount\n1,10\n", string(data))

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `sluice_jobs_total{status="succeeded"} 1`)
	assert.Contains(t, string(metrics), `sluice_jobs_constructed_total{result="failed"} 1`)

	logs, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestExecuteFailures(t *testing.T) {
	t.Setenv(env.VarName(env.JobsConfig), "")
	assert.Equal(t, 1, execute([]string{"run"}))
	assert.Equal(t, 0, execute([]string{"version"}))
}
