// Package orchestrator loads job specifications, builds jobs through the
// connector registry, and runs or diagnoses the selected ones.
//
// Jobs are never cached. Every enumeration merges the configuration and
// constructs fresh connectors, so a Job value is only used by the caller
// that asked for it.
//
// # Basic Usage
//
//	o, err := orchestrator.New(orchestrator.Options{Env: env.Resolve()})
//	if err != nil {
//	    return err
//	}
//	report := o.Run(ctx, orchestrator.RunOptions{Tag: "nightly", Parallel: true})
//	for _, r := range report.Failed() {
//	    log.Printf("%s: %v", r.Name, r.Err)
//	}
package orchestrator

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/config"
	"github.com/ajitpratap0/sluice/pkg/connector/registry"
	"github.com/ajitpratap0/sluice/pkg/env"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/job"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/metrics"
)

// Options configures an Orchestrator. Explicit specs take precedence over
// the files named by Env.
type Options struct {
	// Jobs is the job list; when nil it is read from Env.JobsPath
	Jobs []config.JobSpec
	// Sources maps connector names to shared source specs; when nil it is
	// read from Env.SourcesPath, if set
	Sources map[string]config.ConnectorSpec
	// Targets maps connector names to shared target specs; when nil it is
	// read from Env.TargetsPath, if set
	Targets map[string]config.ConnectorSpec

	Env      env.Environment
	Registry *registry.Registry
	Logger   *zap.Logger
	Metrics  *metrics.Collector
}

// Orchestrator owns the loaded specifications
type Orchestrator struct {
	specs    []config.JobSpec
	sources  map[string]config.ConnectorSpec
	targets  map[string]config.ConnectorSpec
	registry *registry.Registry
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// New resolves the specification documents. Having no job list at all is
// the only fatal condition; missing source or target maps are logged.
func New(opts Options) (*Orchestrator, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	log = log.With(zap.String("component", "orchestrator"))

	o := &Orchestrator{
		specs:    opts.Jobs,
		sources:  opts.Sources,
		targets:  opts.Targets,
		registry: opts.Registry,
		logger:   log,
		metrics:  opts.Metrics,
	}
	if o.registry == nil {
		o.registry = registry.Default()
	}

	if o.specs == nil {
		path, ok := opts.Env.JobsPath()
		if !ok {
			return nil, errors.New(errors.ErrorTypeConfig,
				fmt.Sprintf("no job specification: pass jobs explicitly or set %s", env.VarName(env.JobsConfig)))
		}
		specs, err := config.LoadJobs(path)
		if err != nil {
			return nil, err
		}
		if specs == nil {
			specs = []config.JobSpec{}
		}
		o.specs = specs
		log.Info("loaded job specifications", zap.String("path", path), zap.Int("count", len(specs)))
	}

	var err error
	if o.sources, err = o.connectors(o.sources, "source", env.SourcesConfig, opts.Env.SourcesPath); err != nil {
		return nil, err
	}
	if o.targets, err = o.connectors(o.targets, "target", env.TargetsConfig, opts.Env.TargetsPath); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) connectors(explicit map[string]config.ConnectorSpec, kind, slot string,
	lookup func() (string, bool)) (map[string]config.ConnectorSpec, error) {
	if explicit != nil {
		return explicit, nil
	}
	path, ok := lookup()
	if !ok {
		o.logger.Info("no shared connector specifications, jobs must describe their "+kind+"s fully",
			zap.String("variable", env.VarName(slot)))
		return map[string]config.ConnectorSpec{}, nil
	}
	specs, err := config.LoadConnectors(path)
	if err != nil {
		return nil, err
	}
	o.logger.Info("loaded "+kind+" specifications", zap.String("path", path), zap.Int("count", len(specs)))
	return specs, nil
}

// Specs returns the job specifications in configuration order
func (o *Orchestrator) Specs() []config.JobSpec {
	return o.specs
}

// Jobs constructs every job that can be built, in configuration order.
// Specs that fail to construct are logged and skipped.
func (o *Orchestrator) Jobs() []*job.Job {
	var jobs []*job.Job
	o.Each(func(j *job.Job) bool {
		jobs = append(jobs, j)
		return true
	})
	return jobs
}

// Each constructs jobs one at a time and passes them to fn until fn
// returns false.
func (o *Orchestrator) Each(fn func(*job.Job) bool) {
	for i, spec := range o.specs {
		j, err := o.build(i, spec)
		if err != nil {
			continue
		}
		if !fn(j) {
			return
		}
	}
}

func (o *Orchestrator) build(position int, spec config.JobSpec) (*job.Job, error) {
	j, err := job.FromConfig(spec, o.sources[spec.Source.Name()], o.targets[spec.Target.Name()], o.registry)
	o.metrics.JobConstructed(err == nil)
	if err != nil {
		o.logger.Warn("skipping job that cannot be constructed",
			zap.Int("position", position),
			zap.String("job", spec.Name),
			zap.Error(err))
		return nil, err
	}
	j.Metrics = o.metrics
	return j, nil
}

// FilterJobs returns the jobs named name together with the jobs tagged
// tag. When both are empty every constructible job is returned.
func (o *Orchestrator) FilterJobs(name, tag string) []*job.Job {
	return Filter(o.Jobs(), name, tag)
}

// Filter selects jobs named name or tagged tag, keeping configuration
// order. Jobs are identified by name; only the first of several jobs with
// the same name is kept. Empty name and tag select everything.
func Filter(jobs []*job.Job, name, tag string) []*job.Job {
	if name == "" && tag == "" {
		return jobs
	}
	matched := lo.Filter(jobs, func(j *job.Job, _ int) bool {
		return (name != "" && j.Name == name) || (tag != "" && j.HasTag(tag))
	})
	return lo.UniqBy(matched, func(j *job.Job) string { return j.Name })
}

// positionedSpec is a job spec with its index in the configuration
type positionedSpec struct {
	position int
	spec     config.JobSpec
}

// groupSpecs selects specs the way Filter selects jobs and groups them by
// name. Names keep the order of their first matching spec; each group keeps
// configuration order.
func groupSpecs(specs []positionedSpec, name, tag string) ([]string, map[string][]positionedSpec) {
	if name != "" || tag != "" {
		specs = lo.Filter(specs, func(p positionedSpec, _ int) bool {
			return (name != "" && p.spec.Name == name) || (tag != "" && p.spec.HasTag(tag))
		})
	}
	order := lo.Uniq(lo.Map(specs, func(p positionedSpec, _ int) string { return p.spec.Name }))
	return order, lo.GroupBy(specs, func(p positionedSpec) string { return p.spec.Name })
}
