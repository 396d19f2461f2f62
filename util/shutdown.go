package util

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// ShutdownChannelDistributor - For letting multiple listeners receive the internal shutdown signal.
type ShutdownChannelDistributor struct {
	lock           sync.Mutex
	hasShutdown    bool
	outputChannels []chan<- bool
}

// NewShutdownChannelDistributor - Create a distributor with no listeners.
func NewShutdownChannelDistributor() *ShutdownChannelDistributor {
	return &ShutdownChannelDistributor{}
}

// AddListener - Add a channel to duplicate input to. The channel should be buffered.
// Return false if the shutdown signal has already been sent.
func (shutdown *ShutdownChannelDistributor) AddListener(output chan<- bool) bool {
	shutdown.lock.Lock()
	defer shutdown.lock.Unlock()
	if shutdown.hasShutdown {
		return false
	}
	shutdown.outputChannels = append(shutdown.outputChannels, output)
	return true
}

// Shutdown - Send shutdown signal to all listeners. Only the first call has an effect.
func (shutdown *ShutdownChannelDistributor) Shutdown() {
	shutdown.lock.Lock()
	defer shutdown.lock.Unlock()
	if shutdown.hasShutdown {
		return
	}
	shutdown.hasShutdown = true
	log.Tracef("Sending shutdown signal to %v listeners", len(shutdown.outputChannels))
	for _, output := range shutdown.outputChannels {
		select {
		case output <- true:
		default:
		}
	}
}

// HasShutdown - If the shutdown signal has been sent.
func (shutdown *ShutdownChannelDistributor) HasShutdown() bool {
	shutdown.lock.Lock()
	defer shutdown.lock.Unlock()
	return shutdown.hasShutdown
}
