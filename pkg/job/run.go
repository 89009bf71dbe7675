package job

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/connector/core"
	"github.com/ajitpratap0/sluice/pkg/errors"
	"github.com/ajitpratap0/sluice/pkg/observability"
)

// Run extracts from the source and loads everything it produces into the
// target. Extraction failures abort the job before any load. A source that
// produces no packages is not an error and the target is never called.
// Panics raised by either connector are returned as internal errors.
func (j *Job) Run(ctx context.Context) (err error) {
	ctx, span := observability.NewSpan(ctx, "job.run",
		attribute.String("job.name", j.Name),
		attribute.String("job.source", j.Source.Name()),
		attribute.String("job.target", j.Target.Name()),
	)
	defer span.End()
	span.SetAttribute("job.tags", j.Tags)

	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrorTypeInternal, "job %s panicked: %v", j.Name, r).
				WithDetail("job", j.Name)
			j.logger.Error("job panicked", zap.Any("panic", r))
		}
		span.Fail(err)
	}()

	j.logger.Info("job started",
		zap.String("source", j.Source.Name()),
		zap.String("target", j.Target.Name()))

	stream, err := j.extract(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	empty, err := stream.Empty(ctx)
	if err != nil {
		err = asExtraction(err)
		j.logger.Error("extraction failed", zap.Error(err))
		return err
	}
	if empty {
		j.logger.Info("source produced no packages, skipping load")
		return nil
	}

	if err := j.load(ctx, stream); err != nil {
		return err
	}
	j.logger.Info("job finished")
	return nil
}

func (j *Job) extract(ctx context.Context) (*core.PackageStream, error) {
	ctx, span := observability.NewSpan(ctx, "job.extract", attribute.String("source.type", j.Source.Type()))
	defer span.End()

	stream, err := j.Source.Extract(ctx)
	if err != nil {
		err = asExtraction(err)
		span.Fail(err)
		j.logger.Error("extraction failed", zap.String("source", j.Source.Name()), zap.Error(err))
		return nil, err
	}
	if stream == nil {
		stream = core.FromPackages()
	}
	return stream, nil
}

func (j *Job) load(ctx context.Context, stream *core.PackageStream) error {
	ctx, span := observability.NewSpan(ctx, "job.load", attribute.String("target.type", j.Target.Type()))
	defer span.End()

	counted := j.observe(ctx, stream, span)
	defer counted.Close()

	if err := j.Target.Load(ctx, counted); err != nil {
		if !errors.HasType(err, errors.ErrorTypeExtraction) && !errors.HasType(err, errors.ErrorTypeLoad) {
			err = errors.Wrap(err, errors.ErrorTypeLoad, "load failed").WithDetail("target", j.Target.Name())
		}
		span.Fail(err)
		j.logger.Error("load failed", zap.String("target", j.Target.Name()), zap.Error(err))
		return err
	}
	return nil
}

// observe forwards every package of in, recording it on the span and in
// the metrics collector.
func (j *Job) observe(ctx context.Context, in *core.PackageStream, span *observability.Span) *core.PackageStream {
	return core.NewStream(ctx, func(ctx context.Context, emit core.EmitFunc) error {
		return in.Each(ctx, func(pkg *core.DataPackage) error {
			rows := 0
			if pkg.Table != nil {
				rows = pkg.Table.Len()
			}
			span.AddEvent("package",
				attribute.String("package.name", pkg.Name),
				attribute.Int("package.rows", rows))
			j.logger.Debug("loading package", zap.String("package", pkg.Name), zap.Int("rows", rows))
			j.Metrics.PackageLoaded()
			return emit(pkg)
		})
	})
}

func asExtraction(err error) error {
	if errors.HasType(err, errors.ErrorTypeExtraction) {
		return err
	}
	return errors.Wrap(err, errors.ErrorTypeExtraction, "extraction failed")
}
