package http

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.hon.one/radar/util"
)

func newTestRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	util.NewExporterMetric(registry, "radar", "test")
	return registry
}

func TestHandler(t *testing.T) {
	server := httptest.NewServer(NewHandler(newTestRegistry()))
	defer server.Close()

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/", http.StatusOK, "Metrics: /metrics"},
		{"/metrics", http.StatusOK, `radar_exporter_info{version="test"} 1`},
		{"/nope", http.StatusNotFound, "404"},
	}
	for _, test := range tests {
		response, err := http.Get(server.URL + test.path)
		require.NoError(t, err)
		body, err := io.ReadAll(response.Body)
		response.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, test.status, response.StatusCode, test.path)
		assert.Contains(t, string(body), test.contains, test.path)
	}
}

func TestStartServer(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := listener.Addr().String()
	listener.Close()

	var waitGroup sync.WaitGroup
	shutdown := util.NewShutdownChannelDistributor()
	StartServer(endpoint, newTestRegistry(), &waitGroup, shutdown)

	assert.Eventually(t, func() bool {
		response, err := http.Get("http://" + endpoint + "/metrics")
		if err != nil {
			return false
		}
		response.Body.Close()
		return response.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	shutdown.Shutdown()
	waitGroup.Wait()
	_, err = http.Get("http://" + endpoint + "/metrics")
	assert.Error(t, err)
}

func TestStartServerDisabled(t *testing.T) {
	var waitGroup sync.WaitGroup
	shutdown := util.NewShutdownChannelDistributor()
	StartServer("", newTestRegistry(), &waitGroup, shutdown)
	shutdown.Shutdown()
	waitGroup.Wait()
}
