package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.JobConstructed(true)
	c.JobConstructed(true)
	c.JobConstructed(false)
	c.ObserveJob(StatusSucceeded, 2*time.Second)
	c.ObserveJob(StatusFailed, time.Second)
	c.PackageLoaded()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.jobsConstructed.WithLabelValues(ResultCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobsConstructed.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobsTotal.WithLabelValues(StatusSucceeded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.packagesLoaded))
	assert.Equal(t, 2, testutil.CollectAndCount(c.jobDuration))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	a.ObserveJob(StatusSucceeded, time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.jobsTotal.WithLabelValues(StatusSucceeded)))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.JobConstructed(true)
		c.ObserveJob(StatusFailed, time.Second)
		c.PackageLoaded()
		assert.NoError(t, c.WriteTextfile("/nonexistent/x.prom"))
	})
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.ObserveJob(StatusSucceeded, time.Second)

	path := filepath.Join(t.TempDir(), "sluice.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `sluice_jobs_total{status="succeeded"} 1`))
}
