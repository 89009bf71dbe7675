package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/job"
	"github.com/ajitpratap0/sluice/pkg/observability"
)

// JobDiagnostic describes whether one named job can be built and whether
// its connectors can reach their systems
type JobDiagnostic struct {
	Name              string           `json:"name" yaml:"name"`
	Creatable         bool             `json:"creatable" yaml:"creatable"`
	SourceConnectable core.CheckStatus `json:"source_connectable" yaml:"source_connectable"`
	TargetConnectable core.CheckStatus `json:"target_connectable" yaml:"target_connectable"`
	Errors            []string         `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Healthy reports whether the job can be built and no check failed
func (d JobDiagnostic) Healthy() bool {
	return d.Creatable && d.SourceConnectable != core.CheckUnreachable && d.TargetConnectable != core.CheckUnreachable
}

// UnnamedSpec is a job spec that can never run because it has no name
type UnnamedSpec struct {
	Position int `json:"position" yaml:"position"`
	// Creatable is always false
	Creatable bool   `json:"creatable" yaml:"creatable"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Target   string `json:"target,omitempty" yaml:"target,omitempty"`
}

// DebugSummary counts the outcomes of a DebugReport
type DebugSummary struct {
	Requested int `json:"requested" yaml:"requested"`
	Created   int `json:"created" yaml:"created"`
	Healthy   int `json:"healthy" yaml:"healthy"`
	Unnamed   int `json:"without_name" yaml:"without_name"`
}

// DebugReport is the result of a diagnostic pass
type DebugReport struct {
	Jobs    []JobDiagnostic `json:"jobs" yaml:"jobs"`
	Unnamed []UnnamedSpec   `json:"unnamed" yaml:"unnamed"`
	Summary DebugSummary    `json:"summary" yaml:"summary"`
}

// Debug builds every selected named job and checks the connectivity of
// both sides without moving data. Specs without a name are listed
// separately, whatever the filter.
func (o *Orchestrator) Debug(ctx context.Context, name, tag string) *DebugReport {
	ctx, span := observability.NewSpan(ctx, "orchestrator.debug")
	defer span.End()

	report := &DebugReport{Jobs: []JobDiagnostic{}, Unnamed: []UnnamedSpec{}}

	var named []positionedSpec
	for i, spec := range o.specs {
		if !spec.HasName() {
			report.Unnamed = append(report.Unnamed, UnnamedSpec{
				Position: i,
				Source:   spec.Source.Name(),
				Target:   spec.Target.Name(),
			})
			o.logger.Error("job spec has no name", zap.Int("position", i))
			continue
		}
		named = append(named, positionedSpec{position: i, spec: spec})
	}

	order, groups := groupSpecs(named, name, tag)
	for _, jobName := range order {
		report.Jobs = append(report.Jobs, o.diagnose(ctx, jobName, groups[jobName]))
	}

	report.Summary = DebugSummary{Requested: len(report.Jobs), Unnamed: len(report.Unnamed)}
	for _, d := range report.Jobs {
		if d.Creatable {
			report.Summary.Created++
		}
		if d.Healthy() {
			report.Summary.Healthy++
		}
	}
	o.logger.Info("debug finished",
		zap.Int("requested", report.Summary.Requested),
		zap.Int("created", report.Summary.Created),
		zap.Int("healthy", report.Summary.Healthy),
		zap.Int("without_name", report.Summary.Unnamed))
	return report
}

// diagnose checks the job that Jobs would produce for name: the first of
// its specs that constructs. The job is creatable only if one of them does.
func (o *Orchestrator) diagnose(ctx context.Context, name string, specs []positionedSpec) JobDiagnostic {
	d := JobDiagnostic{
		Name:              name,
		SourceConnectable: core.CheckUnreachable,
		TargetConnectable: core.CheckUnreachable,
	}
	var j *job.Job
	var buildErrs []string
	for _, p := range specs {
		built, err := o.build(p.position, p.spec)
		if err != nil {
			buildErrs = append(buildErrs, err.Error())
			continue
		}
		j = built
		break
	}
	if j == nil {
		d.Errors = buildErrs
		return d
	}
	d.Creatable = true

	var checkErr error
	d.SourceConnectable, checkErr = core.Probe(ctx, j.Source)
	if checkErr != nil {
		d.Errors = append(d.Errors, "source: "+checkErr.Error())
	}
	d.TargetConnectable, checkErr = core.Probe(ctx, j.Target)
	if checkErr != nil {
		d.Errors = append(d.Errors, "target: "+checkErr.Error())
	}
	o.logger.Info("job checked",
		zap.String("job", j.String()),
		zap.Stringer("source_connectable", d.SourceConnectable),
		zap.Stringer("target_connectable", d.TargetConnectable))
	return d
}

// Debug builds an orchestrator from opts and diagnoses the selected jobs
func Debug(ctx context.Context, opts Options, name, tag string) (*DebugReport, error) {
	o, err := New(opts)
	if err != nil {
		return nil, err
	}
	return o.Debug(ctx, name, tag), nil
}
