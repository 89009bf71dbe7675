package job

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/metrics"
	"github.com/ajitpratap0/sluice/pkg/testutil"
)

func jobSpec(source, target config.ConnectorSpec) config.JobSpec {
	return config.JobSpec{Name: "orders", Tags: []string{"daily"}, Source: source, Target: target}
}

func fake(name string, fields ...interface{}) config.ConnectorSpec {
	spec := config.ConnectorSpec{"name": name, "type": testutil.FakeType}
	for i := 0; i+1 < len(fields); i += 2 {
		spec[fields[i].(string)] = fields[i+1]
	}
	return spec
}

func TestMergeConfig(t *testing.T) {
	spec := jobSpec(
		config.ConnectorSpec{"name": "in", "type": "csv", "path": "/a", "opts": map[string]interface{}{"k": "v"}},
		nil,
	)

	merged, err := MergeConfig(spec, core.KindSource, config.ConnectorSpec{"path": "/b"})
	require.NoError(t, err)
	assert.Equal(t, "/b", merged["path"])
	assert.Equal(t, "csv", merged["type"])

	// the job spec is never modified through the result
	merged["opts"].(map[string]interface{})["k"] = "changed"
	assert.Equal(t, "v", spec.Source["opts"].(map[string]interface{})["k"])
	assert.Equal(t, "/a", spec.Source["path"])

	target, err := MergeConfig(spec, core.KindTarget, config.ConnectorSpec{"name": "out", "type": "csv"})
	require.NoError(t, err)
	assert.Equal(t, config.ConnectorSpec{"name": "out", "type": "csv"}, target)

	empty, err := MergeConfig(spec, core.KindTarget, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = MergeConfig(spec, "sideways", nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestFromConfig(t *testing.T) {
	testutil.TestLogger(t)
	reg, rec := testutil.NewRegistry()

	j, err := FromConfig(jobSpec(fake("in"), fake("out")), nil, nil, reg)
	require.NoError(t, err)
	assert.Equal(t, "orders", j.Name)
	assert.Equal(t, []string{"daily"}, j.Tags)
	assert.True(t, j.HasTag("daily"))
	assert.Equal(t, "orders (in => out)", j.String())
	assert.Equal(t, 1, rec.Constructed(core.KindSource))
	assert.Equal(t, 1, rec.Constructed(core.KindTarget))
}

func TestFromConfigOverride(t *testing.T) {
	testutil.TestLogger(t)
	reg, _ := testutil.NewRegistry()

	// the named connector spec supplies the type the job block lacks
	spec := jobSpec(config.ConnectorSpec{"name": "in"}, fake("out"))
	j, err := FromConfig(spec, fake("in", "packages", []string{"a"}), nil, reg)
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeType, j.Source.Type())
}

func TestFromConfigErrors(t *testing.T) {
	testutil.TestLogger(t)
	reg, rec := testutil.NewRegistry()

	tests := []struct {
		name     string
		spec     config.JobSpec
		wantType errors.ErrorType
		cause    errors.ErrorType
	}{
		{"no name", config.JobSpec{Source: fake("in"), Target: fake("out")}, errors.ErrorTypeConfig, errors.ErrorTypeConfig},
		{"source missing type", jobSpec(config.ConnectorSpec{"name": "in"}, fake("out")), errors.ErrorTypeJobConstruction, errors.ErrorTypeMissingType},
		{"unknown target", jobSpec(fake("in"), config.ConnectorSpec{"name": "out", "type": "nope"}), errors.ErrorTypeJobConstruction, errors.ErrorTypeUnknownConnector},
		{"target refuses", jobSpec(fake("in"), fake("out", "fail", testutil.FailConstruct)), errors.ErrorTypeJobConstruction, errors.ErrorTypeConstruction},
		{"bad field", jobSpec(fake("in", "bogus", 1), fake("out")), errors.ErrorTypeJobConstruction, errors.ErrorTypeConstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := FromConfig(tt.spec, nil, nil, reg)
			require.Error(t, err)
			assert.Nil(t, j)
			assert.True(t, errors.IsType(err, tt.wantType), err.Error())
			assert.True(t, errors.HasType(err, tt.cause), err.Error())
		})
	}

	// a target was still attempted when the source failed
	assert.Positive(t, rec.Constructed(core.KindTarget))
}

func TestFromConfigBothSidesFail(t *testing.T) {
	testutil.TestLogger(t)
	reg, _ := testutil.NewRegistry()

	_, err := FromConfig(jobSpec(config.ConnectorSpec{"name": "in"}, config.ConnectorSpec{"name": "out", "type": "nope"}), nil, nil, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `source "in" has no type`)
	assert.Contains(t, err.Error(), `no target connector registered for type "nope"`)
}

func build(t *testing.T, source, target config.ConnectorSpec) (*Job, *testutil.Recorder) {
	t.Helper()
	testutil.TestLogger(t)
	reg, rec := testutil.NewRegistry()
	j, err := FromConfig(jobSpec(source, target), nil, nil, reg)
	require.NoError(t, err)
	return j, rec
}

func TestRun(t *testing.T) {
	j, rec := build(t, fake("in", "packages", []string{"a", "b"}), fake("out"))
	j.Metrics = metrics.NewCollector()

	require.NoError(t, j.Run(context.Background()))
	assert.Equal(t, []string{"a", "b"}, rec.Loaded("out"))

	families, err := j.Metrics.Registry().Gather()
	require.NoError(t, err)
	var packages float64
	for _, mf := range families {
		if mf.GetName() == "sluice_packages_total" {
			packages = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, packages)
}

func TestRunEmptySourceSkipsLoad(t *testing.T) {
	// a failing target proves Load is never reached
	j, rec := build(t, fake("in"), fake("out", "fail", testutil.FailLoad))

	require.NoError(t, j.Run(context.Background()))
	assert.Empty(t, rec.Targets())
	assert.Equal(t, 1, rec.Extracts())
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name     string
		source   config.ConnectorSpec
		target   config.ConnectorSpec
		wantType errors.ErrorType
		loaded   []string
	}{
		{"extract", fake("in", "fail", testutil.FailExtract), fake("out"), errors.ErrorTypeExtraction, nil},
		{"stream before first package", fake("in", "fail", testutil.FailStream), fake("out"), errors.ErrorTypeExtraction, nil},
		{"stream mid load", fake("in", "packages", []string{"a"}, "fail", testutil.FailStream), fake("out"), errors.ErrorTypeExtraction, []string{"a"}},
		{"load", fake("in", "packages", []string{"a"}), fake("out", "fail", testutil.FailLoad), errors.ErrorTypeLoad, nil},
		{"source panic", fake("in", "fail", testutil.FailPanic), fake("out"), errors.ErrorTypeInternal, nil},
		{"target panic", fake("in", "packages", []string{"a"}), fake("out", "fail", testutil.FailPanic), errors.ErrorTypeInternal, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, rec := build(t, tt.source, tt.target)

			var err error
			assert.NotPanics(t, func() { err = j.Run(context.Background()) })
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %s: %v", errors.TypeOf(err), err)
			assert.Equal(t, tt.loaded, rec.Loaded("out"))
		})
	}
}

func TestRunSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	j, _ := build(t, fake("in", "packages", []string{"a"}), fake("out"))
	require.NoError(t, j.Run(context.Background()))

	names := map[string]bool{}
	for _, s := range sr.Ended() {
		names[s.Name()] = true
	}
	assert.True(t, names["job.run"])
	assert.True(t, names["job.extract"])
	assert.True(t, names["job.load"])
}

func TestEqual(t *testing.T) {
	a := &Job{Name: "x"}
	assert.True(t, a.Equal(&Job{Name: "x"}))
	assert.False(t, a.Equal(&Job{Name: "y"}))
	assert.False(t, a.Equal(nil))
}
