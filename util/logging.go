package util

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions - Where and what to log.
type LogOptions struct {
	Level   string // Logrus level name, empty for info
	Debug   bool   // Trace everything, overrides Level
	File    string // Rotating log file, empty for STDERR
	Discard bool   // Drop console output (when the terminal is in use), ignored if File is set
}

// SetupLogging - Configure the standard logrus logger.
func SetupLogging(options LogOptions) error {
	level := log.InfoLevel
	if options.Level != "" {
		parsed, err := log.ParseLevel(options.Level)
		if err != nil {
			return err
		}
		level = parsed
	}
	if options.Debug {
		level = log.TraceLevel
	}
	log.SetLevel(level)

	var output io.Writer = os.Stderr
	switch {
	case options.File != "":
		output = &lumberjack.Logger{
			Filename:   options.File,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // Days
		}
		log.SetFormatter(&log.JSONFormatter{})
	case options.Discard:
		output = io.Discard
	default:
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}
	log.SetOutput(output)
	return nil
}
