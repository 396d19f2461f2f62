package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"dev.hon.one/radar/common"
	"dev.hon.one/radar/util"
)

// ShutdownTimeout - How long to wait for open requests when shutting down.
const ShutdownTimeout = 5 * time.Second

// StartServer - Start HTTP server in the background, serving the registry on /metrics.
func StartServer(endpoint string, registry *prometheus.Registry, waitGroup *sync.WaitGroup, shutdown *util.ShutdownChannelDistributor) {
	if endpoint == "" {
		return
	}
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		return
	}
	waitGroup.Add(1)

	server := &http.Server{
		Addr:    endpoint,
		Handler: NewHandler(registry),
	}

	// Run
	stopped := make(chan struct{})
	go func() {
		defer waitGroup.Done()
		defer close(stopped)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP server failed")
		}
		log.Info("HTTP server stopped")
	}()

	// Shutdown
	go func() {
		select {
		case <-shutdownChannel:
		case <-stopped:
			return
		}
		shutdownContext, shutdownContextCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer shutdownContextCancel()
		server.Shutdown(shutdownContext)
	}()

	log.Infof("HTTP server started: %v", endpoint)
}

// NewHandler - Index and metrics routes.
func NewHandler(registry *prometheus.Registry) http.Handler {
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	mainServeMux := http.NewServeMux()
	mainServeMux.HandleFunc("/", handleOtherRequest)
	mainServeMux.HandleFunc("/metrics", func(response http.ResponseWriter, request *http.Request) {
		log.WithFields(log.Fields{
			"endpoint": "metrics",
			"client":   request.RemoteAddr,
			"url":      request.URL,
		}).Trace("Request")
		metricsHandler.ServeHTTP(response, request)
	})
	return mainServeMux
}

func handleOtherRequest(response http.ResponseWriter, request *http.Request) {
	if request.URL.Path == "/" {
		fmt.Fprintf(response, "%s version %s by %s.\n", common.AppName, common.AppVersion, common.AppAuthor)
		fmt.Fprintf(response, "\nPaths:\n")
		fmt.Fprintf(response, "- Metrics: /metrics\n")
	} else {
		http.Error(response, "404 - Page not found.\n", http.StatusNotFound)
	}
}
