// Package all registers every built-in source and target with the global
// registry. Import it for side effects.
package all

import (
	// Sources
	_ "github.com/ajitpratap0/sluice/pkg/connector/sources/api"
	_ "github.com/ajitpratap0/sluice/pkg/connector/sources/csv"
	_ "github.com/ajitpratap0/sluice/pkg/connector/sources/excel"
	_ "github.com/ajitpratap0/sluice/pkg/connector/sources/mongodb"
	_ "github.com/ajitpratap0/sluice/pkg/connector/sources/mysql"
	_ "github.com/ajitpratap0/sluice/pkg/connector/sources/parquet"
	_ "github.com/ajitpratap0/sluice/pkg/connector/sources/postgresql"

	// Targets
	_ "github.com/ajitpratap0/sluice/pkg/connector/targets/bigquery"
	_ "github.com/ajitpratap0/sluice/pkg/connector/targets/csv"
	_ "github.com/ajitpratap0/sluice/pkg/connector/targets/excel"
	_ "github.com/ajitpratap0/sluice/pkg/connector/targets/gcs"
	_ "github.com/ajitpratap0/sluice/pkg/connector/targets/parquet"
	_ "github.com/ajitpratap0/sluice/pkg/connector/targets/s3"
	_ "github.com/ajitpratap0/sluice/pkg/connector/targets/snowflake"
)
