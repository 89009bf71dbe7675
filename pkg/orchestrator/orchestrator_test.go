package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/env"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/job"
	"github.com/ajitpratap0/sluice/pkg/metrics"
	"github.com/ajitpratap0/sluice/pkg/testutil"
)

func fake(name string, fields ...interface{}) config.ConnectorSpec {
	spec := config.ConnectorSpec{"name": name, "type": testutil.FakeType}
	for i := 0; i+1 < len(fields); i += 2 {
		spec[fields[i].(string)] = fields[i+1]
	}
	return spec
}

func spec(name string, tags ...string) config.JobSpec {
	return config.JobSpec{
		Name:   name,
		Tags:   tags,
		Source: fake(name+"_in", "packages", []string{name}),
		Target: fake(name + "_out"),
	}
}

func newOrchestrator(t *testing.T, specs ...config.JobSpec) (*Orchestrator, *testutil.Recorder) {
	t.Helper()
	log := testutil.TestLogger(t)
	reg, rec := testutil.NewRegistry()
	o, err := New(Options{Jobs: specs, Registry: reg, Logger: log})
	require.NoError(t, err)
	return o, rec
}

func names(jobs []*job.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Name
	}
	return out
}

func TestNewWithoutJobs(t *testing.T) {
	testutil.TestLogger(t)
	_, err := New(Options{Env: env.FromMap(nil)})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "SLUICE_JOBS_CONFIG")
}

func TestNewFromEnvironment(t *testing.T) {
	testutil.TestLogger(t)
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	jobs := write("jobs.yaml", `
- name: orders
  source: {name: shared_in}
  target: {name: orders_out, type: fake}
`)
	sources := write("sources.yaml", `
shared_in:
  name: shared_in
  type: fake
  packages: [a]
`)
	reg, rec := testutil.NewRegistry()
	o, err := New(Options{
		Env:      env.FromMap(map[string]string{env.JobsConfig: jobs, env.SourcesConfig: sources}),
		Registry: reg,
	})
	require.NoError(t, err)
	require.Len(t, o.Specs(), 1)

	report := o.Run(context.Background(), RunOptions{})
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSucceeded, report.Results[0].Status)
	assert.Equal(t, []string{"a"}, rec.Loaded("orders_out"))
}

func TestNewBrokenConnectorFile(t *testing.T) {
	testutil.TestLogger(t)
	_, err := New(Options{
		Jobs: []config.JobSpec{},
		Env:  env.FromMap(map[string]string{env.TargetsConfig: filepath.Join(t.TempDir(), "missing.yaml")}),
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestJobs(t *testing.T) {
	broken := spec("broken")
	broken.Target = config.ConnectorSpec{"name": "x", "type": "nope"}
	unnamed := spec("")

	o, rec := newOrchestrator(t, spec("a", "daily"), unnamed, broken, spec("b"))
	m := metrics.NewCollector()
	o.metrics = m

	jobs := o.Jobs()
	assert.Equal(t, []string{"a", "b"}, names(jobs))
	assert.Equal(t, []string{"daily"}, jobs[0].Tags)
	assert.Same(t, m, jobs[0].Metrics)

	// nothing is cached
	built := rec.Constructed(core.KindSource)
	o.Jobs()
	assert.Equal(t, 2*built, rec.Constructed(core.KindSource))
}

func TestJobsSurvivePanickingConnector(t *testing.T) {
	bad := spec("bad")
	bad.Source = fake("bad_in", "fail", testutil.FailConstructPanic)

	o, _ := newOrchestrator(t, bad, spec("good"))

	var jobs []*job.Job
	require.NotPanics(t, func() { jobs = o.Jobs() })
	assert.Equal(t, []string{"good"}, names(jobs))

	report := o.Run(context.Background(), RunOptions{})
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSucceeded, report.Results[0].Status)
}

func TestEachStopsEarly(t *testing.T) {
	o, rec := newOrchestrator(t, spec("a"), spec("b"), spec("c"))

	var seen []string
	o.Each(func(j *job.Job) bool {
		seen = append(seen, j.Name)
		return false
	})
	assert.Equal(t, []string{"a"}, seen)
	assert.Equal(t, 1, rec.Constructed(core.KindSource))
}

func TestFilterJobs(t *testing.T) {
	o, _ := newOrchestrator(t,
		spec("a", "daily"),
		spec("b"),
		spec("c", "daily", "sales"),
		spec("a", "sales"),
	)

	tests := []struct {
		name string
		job  string
		tag  string
		want []string
	}{
		{"everything", "", "", []string{"a", "b", "c", "a"}},
		{"by name", "b", "", []string{"b"}},
		{"by missing name", "x", "", []string{}},
		{"by tag", "", "daily", []string{"a", "c"}},
		{"union in config order", "b", "daily", []string{"a", "b", "c"}},
		{"dedup keeps first", "a", "sales", []string{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(o.FilterJobs(tt.job, tt.tag)))
		})
	}

	got := o.FilterJobs("a", "sales")
	assert.Equal(t, []string{"daily"}, got[0].Tags)
}

func TestRunNothingSelected(t *testing.T) {
	o, rec := newOrchestrator(t, spec("a"))

	report := o.Run(context.Background(), RunOptions{Name: "nope"})
	assert.Empty(t, report.Results)
	assert.NoError(t, report.Err())
	assert.Zero(t, rec.Extracts())
	assert.Empty(t, rec.Targets())
}

func TestRunIsolatesFailures(t *testing.T) {
	failing := spec("bad", "daily")
	failing.Target = fake("bad_out", "fail", testutil.FailLoad)

	for _, parallel := range []bool{false, true} {
		t.Run(map[bool]string{false: "sequential", true: "parallel"}[parallel], func(t *testing.T) {
			o, rec := newOrchestrator(t, spec("a", "daily"), failing, spec("c", "daily"))
			o.metrics = metrics.NewCollector()

			report := o.Run(context.Background(), RunOptions{Tag: "daily", Parallel: parallel, Workers: 2})
			require.Len(t, report.Results, 3)
			assert.Equal(t, "a", report.Results[0].Name)
			assert.Equal(t, StatusSucceeded, report.Results[0].Status)
			assert.Equal(t, StatusFailed, report.Results[1].Status)
			assert.True(t, errors.IsType(report.Results[1].Err, errors.ErrorTypeLoad))
			assert.NotEmpty(t, report.Results[1].Error)
			assert.Equal(t, StatusSucceeded, report.Results[2].Status)

			require.Len(t, report.Failed(), 1)
			assert.Error(t, report.Err())
			assert.Equal(t, []string{"a"}, rec.Loaded("a_out"))
			assert.Equal(t, []string{"c"}, rec.Loaded("c_out"))
		})
	}
}

func TestRunParallelDefaultsWorkers(t *testing.T) {
	o, rec := newOrchestrator(t, spec("a"), spec("b"), spec("c"), spec("d"))

	report := o.Run(context.Background(), RunOptions{Parallel: true})
	require.Len(t, report.Results, 4)
	assert.Empty(t, report.Failed())
	assert.Equal(t, []string{"a_out", "b_out", "c_out", "d_out"}, rec.Targets())
}
