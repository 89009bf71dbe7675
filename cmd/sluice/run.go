package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sluice/pkg/env"
	"github.com/ajitpratap0/sluice/pkg/logger"
	"github.com/ajitpratap0/sluice/pkg/metrics"
	"github.com/ajitpratap0/sluice/pkg/observability"
	"github.com/ajitpratap0/sluice/pkg/orchestrator"
)

func newRunCmd() *cobra.Command {
	var (
		opts        orchestrator.RunOptions
		metricsFile string
		trace       bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run jobs",
		Long: `Run the jobs selected by name and tag, or every job when neither is given.
A job selected by both is run once.

Example:
  sluice run --tag nightly --parallel --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if trace {
				shutdown, err := observability.InitTracing(observability.TracingConfig{
					ServiceVersion: version,
					Writer:         cmd.ErrOrStderr(),
				})
				if err != nil {
					return err
				}
				defer func() {
					flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := shutdown(flushCtx); err != nil {
						logger.Get().Warn("failed to flush traces", zap.Error(err))
					}
				}()
			}

			collector := metrics.NewCollector()
			o, err := orchestrator.New(orchestrator.Options{Env: env.Resolve(), Metrics: collector})
			if err != nil {
				return err
			}

			report := o.Run(ctx, opts)
			if metricsFile != "" {
				if err := collector.WriteTextfile(metricsFile); err != nil {
					logger.Get().Warn("failed to write metrics", zap.String("path", metricsFile), zap.Error(err))
				}
			}
			if err := renderRunReport(cmd.OutOrStdout(), report, output); err != nil {
				return err
			}
			return report.Err()
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "job", "j", "", "Run the job with this name")
	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "Run every job carrying this tag")
	cmd.Flags().BoolVarP(&opts.Parallel, "parallel", "p", false, "Run selected jobs concurrently")
	cmd.Flags().IntVar(&opts.Workers, "workers", runtime.NumCPU(), "Maximum concurrent jobs with --parallel")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	cmd.Flags().BoolVar(&trace, "trace", false, "Print OpenTelemetry spans to stderr")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Report format (table, json, yaml)")
	return cmd
}
