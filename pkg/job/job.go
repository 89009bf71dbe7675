// Package job couples one source and one target under a name and runs the
// extract then load flow between them.
//
// A Job only exists when both connectors were constructed. Construction
// failures are returned from FromConfig and never yield a partial Job.
package job

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/metrics"
)

// Job is one runnable extract-load unit
type Job struct {
	Name   string
	Tags   []string
	Source core.Source
	Target core.Target

	// Metrics, when set, counts packages handed to the target
	Metrics *metrics.Collector

	logger *zap.Logger
}

// New couples an already constructed source and target
func New(name string, tags []string, source core.Source, target core.Target) *Job {
	return &Job{
		Name:   name,
		Tags:   append([]string(nil), tags...),
		Source: source,
		Target: target,
		logger: logger.With(zap.String("component", "job"), zap.String("job", name)),
	}
}

// MergeConfig returns the effective connector spec for one side of a job:
// a deep copy of the block embedded in the job spec, overlaid key by key
// with override. Keys present in override always win. A job without an
// embedded block for the side starts from an empty spec.
func MergeConfig(spec config.JobSpec, side core.ConnectorKind, override config.ConnectorSpec) (config.ConnectorSpec, error) {
	var embedded config.ConnectorSpec
	switch side {
	case core.KindSource:
		embedded = spec.Source
	case core.KindTarget:
		embedded = spec.Target
	default:
		return nil, errors.New(errors.ErrorTypeConfig, fmt.Sprintf("unknown job side %q", side))
	}

	merged := embedded.Clone()
	for k, v := range override.Clone() {
		merged[k] = v
	}
	return merged, nil
}

// FromConfig builds a job from its spec and the optional named connector
// specs of each side. Both sides are always attempted so that every
// failure is reported. A nil registry means the global one.
func FromConfig(spec config.JobSpec, sourceOverride, targetOverride config.ConnectorSpec, reg *registry.Registry) (*Job, error) {
	if !spec.HasName() {
		return nil, errors.New(errors.ErrorTypeConfig, "job spec has no name")
	}
	if reg == nil {
		reg = registry.Default()
	}
	log := logger.With(zap.String("component", "job"), zap.String("job", spec.Name))

	var (
		source core.Source
		target core.Target
		errs   error
	)

	sourceSpec, err := MergeConfig(spec, core.KindSource, sourceOverride)
	if err == nil {
		source, err = reg.ResolveSource(sourceSpec)
	}
	if err != nil {
		log.Error("failed to construct source", zap.String("source", sourceSpec.Name()), zap.Error(err))
		errs = multierr.Append(errs, err)
	}

	targetSpec, err := MergeConfig(spec, core.KindTarget, targetOverride)
	if err == nil {
		target, err = reg.ResolveTarget(targetSpec)
	}
	if err != nil {
		log.Error("failed to construct target", zap.String("target", targetSpec.Name()), zap.Error(err))
		errs = multierr.Append(errs, err)
	}

	if errs != nil {
		return nil, errors.Wrap(errs, errors.ErrorTypeJobConstruction,
			fmt.Sprintf("job %q could not be constructed", spec.Name)).
			WithDetail("job", spec.Name)
	}
	return New(spec.Name, spec.Tags, source, target), nil
}

// Equal reports whether two jobs are the same logical job. Jobs are
// identified by name.
func (j *Job) Equal(other *Job) bool {
	if j == nil || other == nil {
		return j == other
	}
	return j.Name == other.Name
}

// HasTag reports whether tag is one of the job's tags
func (j *Job) HasTag(tag string) bool {
	for _, t := range j.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (j *Job) String() string {
	return fmt.Sprintf("%s (%s => %s)", j.Name, j.Source.Name(), j.Target.Name())
}
