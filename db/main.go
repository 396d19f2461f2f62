package db

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	log "github.com/sirupsen/logrus"

	"dev.hon.one/radar/common"
	"dev.hon.one/radar/util"
)

// InfluxDBHealthWait - How long to wait for the database before scanning without it.
const InfluxDBHealthWait = 5 * time.Second

var clientLock sync.RWMutex
var clientWriteAPI influxdb2api.WriteAPI

// StartClient - Start DB client, if configured. Blocks until the DB is up or the health wait ends.
func StartClient(config common.Config, waitGroup *sync.WaitGroup, shutdown *util.ShutdownChannelDistributor) {
	if config.InfluxDBURL == "" {
		log.Trace("No InfluxDB URL configured, not storing entries")
		return
	}

	// Setup shutdown signal and waitgroup
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		return
	}
	waitGroup.Add(1)

	newClient := influxdb2.NewClient(config.InfluxDBURL, config.InfluxDBToken)
	cleanup := func() {
		clientLock.Lock()
		localWriteAPI := clientWriteAPI
		clientWriteAPI = nil
		clientLock.Unlock()
		if localWriteAPI != nil {
			localWriteAPI.Flush()
		}
		newClient.Close()
		log.Info("DB client stopped")
		waitGroup.Done()
	}

	// Wait for DB connection (true) to come up or for shutdown signal or timeout (false)
	if !waitForDBUp(newClient, shutdownChannel) {
		log.WithField("url", config.InfluxDBURL).Warn("Database not reachable, not storing entries")
		go func() {
			<-shutdownChannel
			cleanup()
		}()
		return
	}

	// Setup async write API and error logging
	bucket := config.InfluxDBBucket
	if bucket == "" {
		bucket = common.InfluxDBDefaultBucket
	}
	writeAPI := newClient.WriteAPI(config.InfluxDBOrg, bucket)
	writeAPIErrors := writeAPI.Errors()
	go func() {
		for err := range writeAPIErrors {
			log.WithError(err).Error("Failed to write to database")
		}
	}()

	clientLock.Lock()
	clientWriteAPI = writeAPI
	clientLock.Unlock()

	go func() {
		<-shutdownChannel
		cleanup()
	}()

	log.Info("DB client started: ", config.InfluxDBURL)
}

func waitForDBUp(dbClient influxdb2.Client, shutdownChannel <-chan bool) bool {
	checkHealth := func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := dbClient.Health(ctx)
		if err != nil {
			log.WithError(err).Tracef("Database connection error")
			return false
		}
		return true
	}
	if checkHealth() {
		return true
	}
	log.Info("Waiting for database")
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	giveUp := time.After(InfluxDBHealthWait)
	for {
		select {
		case <-ticker.C:
			if checkHealth() {
				return true
			}
		case <-giveUp:
			return false
		case <-shutdownChannel:
			return false
		}
	}
}

func writePoint(point *write.Point) {
	clientLock.RLock()
	defer clientLock.RUnlock()
	if clientWriteAPI == nil {
		return
	}
	clientWriteAPI.WritePoint(point)
}

// StoreScanEntry - Attempt to store a scan entry in the DB.
func StoreScanEntry(entry common.ScanEntry) {
	log.WithFields(log.Fields{
		"scan_id":  entry.ScanID,
		"target":   entry.Target,
		"range":    entry.Range,
		"found":    entry.Found,
		"address":  entry.Address,
		"duration": entry.Duration,
	}).Trace("Scan entry")
	writePoint(newScanPoint(entry))
}

// StoreProbeEntry - Attempt to store a probe entry in the DB.
func StoreProbeEntry(entry common.ProbeEntry) {
	writePoint(newProbePoint(entry))
}

func newScanPoint(entry common.ScanEntry) *write.Point {
	return influxdb2.NewPointWithMeasurement("scan").
		AddTag("scan_id", entry.ScanID).
		AddTag("target", entry.Target).
		AddTag("range", entry.Range).
		AddField("found", entry.Found).
		AddField("address", entry.Address).
		AddField("candidates", entry.Candidates).
		AddField("probed", entry.Probed).
		AddField("unreachable", entry.Unreachable).
		AddField("failed", entry.Failed).
		AddField("duration_seconds", entry.Duration.Seconds()).
		AddField("error", entry.Error).
		SetTime(entry.Time)
}

func newProbePoint(entry common.ProbeEntry) *write.Point {
	return influxdb2.NewPointWithMeasurement("probe").
		AddTag("scan_id", entry.ScanID).
		AddTag("address", entry.Address).
		AddTag("outcome", entry.Outcome).
		AddField("duration_seconds", entry.Duration.Seconds()).
		AddField("error", entry.Error).
		SetTime(entry.Time)
}
