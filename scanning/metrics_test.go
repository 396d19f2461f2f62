package scanning

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.hon.one/radar/common"
)

func TestMetricsTextfile(t *testing.T) {
	metrics := NewMetrics()
	metrics.observeProbe(common.ProbeEntry{Outcome: common.OutcomeNoMatch, Duration: 120 * time.Millisecond})
	metrics.observeScan(scanResultNotFound)

	path := filepath.Join(t.TempDir(), "radar.prom")
	require.NoError(t, metrics.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `radar_probe_total{outcome="no_match"} 1`)
	assert.Contains(t, text, `radar_scan_total{result="not_found"} 1`)
	assert.Contains(t, text, "radar_probe_duration_seconds_count 1")
	assert.Contains(t, text, "radar_exporter_info")
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics
	assert.NotPanics(t, func() {
		metrics.probeStarted()
		metrics.probeDone()
		metrics.observeProbe(common.ProbeEntry{Outcome: common.OutcomeMatched})
		metrics.observeScan(scanResultFound)
	})
}
