package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/json"
	"github.com/ajitpratap0/sluice/pkg/testutil"
)

func TestDebug(t *testing.T) {
	unnamed := config.JobSpec{Tags: []string{"daily"}, Source: fake("orphan_in"), Target: fake("orphan_out")}
	o, rec := newOrchestrator(t, unnamed, spec("orders", "daily"))

	report := o.Debug(context.Background(), "", "")
	require.Len(t, report.Jobs, 1)
	assert.Equal(t, JobDiagnostic{
		Name:              "orders",
		Creatable:         true,
		SourceConnectable: core.CheckConnectable,
		TargetConnectable: core.CheckConnectable,
	}, report.Jobs[0])

	require.Len(t, report.Unnamed, 1)
	assert.Equal(t, 0, report.Unnamed[0].Position)
	assert.False(t, report.Unnamed[0].Creatable)
	assert.Equal(t, "orphan_in", report.Unnamed[0].Source)

	assert.Equal(t, DebugSummary{Requested: 1, Created: 1, Healthy: 1, Unnamed: 1}, report.Summary)

	// no data moved
	assert.Zero(t, rec.Extracts())
	assert.Empty(t, rec.Targets())
}

func TestDebugDuplicateNames(t *testing.T) {
	first := spec("dup")
	first.Source = fake("dup_in", "fail", testutil.FailConstruct)
	second := spec("dup")
	second.Target = fake("dup_out", "check", "false")

	o, _ := newOrchestrator(t, first, second)
	require.Equal(t, []string{"dup"}, names(o.Jobs()))

	report := o.Debug(context.Background(), "", "")
	require.Len(t, report.Jobs, 1)
	d := report.Jobs[0]
	assert.True(t, d.Creatable)
	assert.Equal(t, core.CheckConnectable, d.SourceConnectable)
	// the second spec was the one checked
	assert.Equal(t, core.CheckUnreachable, d.TargetConnectable)
	assert.Equal(t, DebugSummary{Requested: 1, Created: 1}, report.Summary)

	broken := spec("dup")
	broken.Target = config.ConnectorSpec{"name": "dup_out"}
	o, _ = newOrchestrator(t, first, broken)
	report = o.Debug(context.Background(), "dup", "")
	require.Len(t, report.Jobs, 1)
	assert.False(t, report.Jobs[0].Creatable)
	assert.Len(t, report.Jobs[0].Errors, 2)
}

func TestDebugCheckOutcomes(t *testing.T) {
	unsupported := spec("unsupported")
	unsupported.Source = fake("u_in", "check", "unsupported")
	unsupported.Target = config.ConnectorSpec{"name": "u_out", "type": testutil.FakeUncheckedType}

	unreachable := spec("unreachable")
	unreachable.Source = fake("f_in", "check", "false")
	unreachable.Target = fake("f_out", "check", "error")

	broken := spec("broken")
	broken.Source = config.ConnectorSpec{"name": "b_in"}

	o, _ := newOrchestrator(t, unsupported, unreachable, broken, spec("skipped"))

	report := o.Debug(context.Background(), "broken", "")
	require.Len(t, report.Jobs, 1)
	assert.False(t, report.Jobs[0].Creatable)
	assert.Equal(t, core.CheckUnreachable, report.Jobs[0].SourceConnectable)
	assert.NotEmpty(t, report.Jobs[0].Errors)

	report = o.Debug(context.Background(), "", "")
	require.Len(t, report.Jobs, 4)

	u := report.Jobs[0]
	assert.True(t, u.Creatable)
	assert.Equal(t, core.CheckUnsupported, u.SourceConnectable)
	assert.Equal(t, core.CheckUnsupported, u.TargetConnectable)
	assert.True(t, u.Healthy())

	f := report.Jobs[1]
	assert.Equal(t, core.CheckUnreachable, f.SourceConnectable)
	assert.Equal(t, core.CheckUnreachable, f.TargetConnectable)
	assert.Len(t, f.Errors, 1)
	assert.False(t, f.Healthy())

	assert.Equal(t, DebugSummary{Requested: 4, Created: 3, Healthy: 2}, report.Summary)

	data, err := json.Marshal(report.Jobs[:2])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source_connectable":"unsupported"`)
	assert.Contains(t, string(data), `"source_connectable":false`)
}

func TestPackageDebug(t *testing.T) {
	testutil.TestLogger(t)
	reg, _ := testutil.NewRegistry()

	_, err := Debug(context.Background(), Options{Registry: reg}, "", "")
	require.Error(t, err)

	report, err := Debug(context.Background(), Options{Jobs: []config.JobSpec{spec("a"), spec("b", "t")}, Registry: reg}, "", "t")
	require.NoError(t, err)
	require.Len(t, report.Jobs, 1)
	assert.Equal(t, "b", report.Jobs[0].Name)
}
