// Package connector groups the pieces that move data in and out of sluice.
//
// # Architecture Overview
//
//   - core: the Source and Target interfaces, the DataPackage exchanged
//     between them, the lazily produced PackageStream and Probe, which
//     turns an optional Checker into a three valued CheckStatus.
//
//   - registry: type name to factory tables for sources and targets, plus a
//     catalog describing the fields each connector accepts. Connectors
//     register themselves from init functions.
//
//   - base: helpers connectors compose instead of inheriting: config
//     decoding with mapstructure, file selection by pattern and age, SQL
//     assembly, URL templating, JSON flattening and object store writes.
//
//   - sources: csv, excel, parquet, postgresql, mysql, api and mongodb.
//
//   - targets: csv, excel, parquet, bigquery, snowflake, s3 and gcs.
//
//   - all: blank imports registering every built-in connector.
//
// # Writing a Connector
//
// A connector is a factory taking the raw field map of its block:
//
//	type Config struct {
//	    base.Identity `mapstructure:",squash"`
//	    Path          string `mapstructure:"path"`
//	}
//
//	func New(spec config.ConnectorSpec) (core.Source, error) {
//	    var cfg Config
//	    if err := base.Decode(spec, &cfg); err != nil {
//	        return nil, err
//	    }
//	    return &Source{Identity: cfg.Identity, cfg: cfg}, nil
//	}
//
//	func init() {
//	    _ = registry.RegisterSource("mytype", New)
//	}
//
// Constructors must not open connections or files. Extract, Load and Check
// acquire what they need and release it before returning. Extract should
// defer its work to the stream producer with core.NewStream so that
// packages are read only as the target consumes them.
package connector
