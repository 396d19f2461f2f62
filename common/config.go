package common

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"dev.hon.one/radar/util"
)

// DefaultConcurrency - Default number of probes in flight at once.
const DefaultConcurrency = 50

// InfluxDBDefaultBucket - Default InfluxDB bucket.
const InfluxDBDefaultBucket = "radar"

// Config - The config file.
type Config struct {
	Concurrency        int                `json:"concurrency"`
	Port               int                `json:"port"`
	TimeoutSeconds     float64            `json:"timeout_seconds"`
	ScanTimeoutSeconds float64            `json:"scan_timeout_seconds"` // 0 for none
	Command            string             `json:"command"`
	KnownHostsPath     string             `json:"known_hosts_path"`
	MetricsFile        string             `json:"metrics_file"`
	HTTPEndpoint       string             `json:"http_endpoint"` // Empty to disable
	LogFile            string             `json:"log_file"`
	LogLevel           string             `json:"log_level"`
	InfluxDBURL        string             `json:"influxdb_url"` // Empty to disable
	InfluxDBToken      string             `json:"influxdb_token"`
	InfluxDBOrg        string             `json:"influxdb_org"`
	InfluxDBBucket     string             `json:"influxdb_bucket"`
	Profiles           map[string]Profile `json:"profiles"`
}

// DefaultConfig - Config used when no file is given.
func DefaultConfig() Config {
	return Config{
		Concurrency:    DefaultConcurrency,
		Port:           DefaultPort,
		TimeoutSeconds: DefaultTimeout.Seconds(),
		Command:        DefaultCommand,
		LogLevel:       "info",
		InfluxDBBucket: InfluxDBDefaultBucket,
	}
}

// LoadConfig - Load configuration file. Defaults to defaults if the path is empty.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		// Allow no config
		return config, nil
	}

	log.WithFields(log.Fields{
		"config_path": path,
	}).Info("Loading config")

	if err := util.ParseJSONFile(&config, path); err != nil {
		return config, err
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config %v: %w", path, err)
	}

	return config, nil
}

// Validate - Check value ranges.
func (config Config) Validate() error {
	if config.Concurrency < 0 {
		return errors.New("negative concurrency not allowed")
	}
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port out of range: %v", config.Port)
	}
	if config.TimeoutSeconds < 0 || config.ScanTimeoutSeconds < 0 {
		return errors.New("negative timeout not allowed")
	}
	for tag, profile := range config.Profiles {
		if tag == "" || profile.Username == "" {
			return fmt.Errorf("invalid profile, missing fields: %q", tag)
		}
	}
	return nil
}

// Timeout - Per-host timeout.
func (config Config) Timeout() time.Duration {
	return secondsToDuration(config.TimeoutSeconds)
}

// ScanTimeout - Whole-scan deadline, zero for none.
func (config Config) ScanTimeout() time.Duration {
	return secondsToDuration(config.ScanTimeoutSeconds)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
