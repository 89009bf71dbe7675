package orchestrator

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/sluice/pkg/job"
	"github.com/ajitpratap0/sluice/pkg/metrics"
	"github.com/ajitpratap0/sluice/pkg/observability"
)

// Status is the outcome of one job run
type Status string

const (
	StatusSucceeded Status = metrics.StatusSucceeded
	StatusFailed    Status = metrics.StatusFailed
)

// RunOptions selects and schedules jobs
type RunOptions struct {
	Name string
	Tag  string
	// Parallel runs the selected jobs concurrently, at most Workers at a
	// time. Workers defaults to the number of CPUs.
	Parallel bool
	Workers  int
}

// JobResult is the outcome of one job
type JobResult struct {
	Name     string        `json:"name" yaml:"name"`
	Status   Status        `json:"status" yaml:"status"`
	Err      error         `json:"-" yaml:"-"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// RunReport aggregates the results of one Run, in selection order
type RunReport struct {
	Results  []JobResult   `json:"results" yaml:"results"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Failed returns the results of failed jobs
func (r *RunReport) Failed() []JobResult {
	var failed []JobResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err combines the errors of every failed job, or returns nil
func (r *RunReport) Err() error {
	var err error
	for _, res := range r.Failed() {
		err = multierr.Append(err, res.Err)
	}
	return err
}

// Run executes the selected jobs and reports on each. A failing job never
// stops the others. Selecting no jobs is not an error.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) *RunReport {
	start := time.Now()
	ctx, span := observability.NewSpan(ctx, "orchestrator.run",
		attribute.String("filter.name", opts.Name),
		attribute.String("filter.tag", opts.Tag),
		attribute.Bool("parallel", opts.Parallel))
	defer span.End()

	report := &RunReport{}
	selected := o.FilterJobs(opts.Name, opts.Tag)
	if len(selected) == 0 {
		o.logger.Warn("no jobs selected", zap.String("name", opts.Name), zap.String("tag", opts.Tag))
		return report
	}
	span.SetAttribute("jobs", len(selected))

	report.Results = make([]JobResult, len(selected))
	if opts.Parallel {
		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		o.logger.Info("running jobs in parallel", zap.Int("jobs", len(selected)), zap.Int("workers", workers))

		var g errgroup.Group
		g.SetLimit(workers)
		for i, j := range selected {
			g.Go(func() error {
				report.Results[i] = o.runJob(ctx, j)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		o.logger.Info("running jobs sequentially", zap.Int("jobs", len(selected)))
		for i, j := range selected {
			report.Results[i] = o.runJob(ctx, j)
		}
	}

	report.Duration = time.Since(start)
	failed := len(report.Failed())
	o.logger.Info("run finished",
		zap.Int("jobs", len(selected)),
		zap.Int("failed", failed),
		zap.Duration("duration", report.Duration))
	if failed > 0 {
		span.Fail(report.Err())
	}
	return report
}

func (o *Orchestrator) runJob(ctx context.Context, j *job.Job) JobResult {
	start := time.Now()
	err := j.Run(ctx)
	res := JobResult{Name: j.Name, Status: StatusSucceeded, Duration: time.Since(start)}
	if err != nil {
		res.Status, res.Err, res.Error = StatusFailed, err, err.Error()
		o.logger.Error("job failed", zap.String("job", j.String()), zap.Error(err))
	} else {
		o.logger.Info("job succeeded", zap.String("job", j.String()), zap.Duration("duration", res.Duration))
	}
	o.metrics.ObserveJob(string(res.Status), res.Duration)
	return res
}
