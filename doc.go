// Package sluice is a declarative extract-load job runner.
//
// Jobs are described in YAML. Each job names a source and a target, and
// each side selects a connector with its type field:
//
//	- name: orders
//	  tags: [daily]
//	  source:
//	    name: orders_db
//	    type: postgresql
//	    host: db.internal
//	    schema: public
//	    table: orders
//	  target:
//	    name: lake
//	    type: parquet
//	    path: /data/lake
//
// Connector blocks shared by several jobs may live in separate source and
// target documents, keyed by connector name. When a job refers to such a
// connector, the shared fields override the ones written in the job.
//
// # Architecture
//
//   - pkg/env resolves the four SLUICE_* environment slots
//   - pkg/config loads the job, source and target documents
//   - pkg/connector/core defines Source, Target, the lazy PackageStream and
//     connectivity probing
//   - pkg/connector/registry maps type names to connector factories
//   - pkg/connector/sources and pkg/connector/targets hold the built-in
//     connectors, registered by importing pkg/connector/all
//   - pkg/job merges configuration and runs one extract then load
//   - pkg/orchestrator filters, runs and diagnoses jobs
//   - cmd/sluice is the command line entry point
//
// # Quick Start
//
//	export SLUICE_JOBS_CONFIG=jobs.yaml
//	sluice debug
//	sluice run --tag daily --parallel
//
// Jobs selected with --parallel run on a bounded set of goroutines. The run
// report lists every job with its status, and the process exits non-zero
// when any job failed.
package sluice
