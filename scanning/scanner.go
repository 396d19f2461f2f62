package scanning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"dev.hon.one/radar/common"
)

// DefaultConcurrency - Default cap of probes in flight at once.
const DefaultConcurrency = common.DefaultConcurrency

// Scanner - Probes every host of a range and reports the one owning a hardware address.
type Scanner struct {
	prober      Prober
	concurrency int
	metrics     *Metrics
	probeHook   func(common.ProbeEntry)
}

// Option - Scanner option.
type Option func(*Scanner)

// WithConcurrency - Cap the number of probes in flight. Values below 1 mean 1.
func WithConcurrency(concurrency int) Option {
	return func(scanner *Scanner) {
		if concurrency < 1 {
			concurrency = 1
		}
		scanner.concurrency = concurrency
	}
}

// WithMetrics - Record probe and scan metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(scanner *Scanner) {
		scanner.metrics = metrics
	}
}

// WithProbeHook - Call the hook for every probe that completes before the scan is decided.
// Calls are serialized.
func WithProbeHook(hook func(common.ProbeEntry)) Option {
	return func(scanner *Scanner) {
		scanner.probeHook = hook
	}
}

// NewScanner - Create a scanner using the prober for every host.
func NewScanner(prober Prober, options ...Option) *Scanner {
	scanner := &Scanner{
		prober:      prober,
		concurrency: DefaultConcurrency,
	}
	for _, option := range options {
		option(scanner)
	}
	return scanner
}

type probeOutcome struct {
	entry   common.ProbeEntry
	matched bool
	err     error
}

// Scan - Probe every host of the CIDR range, at most the concurrency cap at a time.
//
// The first probe to complete with a match decides the result and the remaining probes are
// cancelled. With no match the result carries the first failure, in completion order, from a
// host that accepted the TCP connection (handshake, auth or command failures). Hosts that
// refuse or time out the connection are counted as unreachable and never become the cause.
//
// An invalid range returns only an error. If ctx ends before a match, the partial result is
// returned with an error wrapping common.ErrScanTimeout or context.Canceled.
func (scanner *Scanner) Scan(ctx context.Context, targetMAC string, cidr string) (*common.ScanResult, error) {
	target := strings.ToLower(strings.TrimSpace(targetMAC))
	result := &common.ScanResult{
		ScanID:  uuid.NewString(),
		Target:  target,
		Range:   cidr,
		Started: time.Now(),
	}

	hosts, err := ParseRange(cidr)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"scan_id": result.ScanID,
			"range":   cidr,
		}).Warn("Failed to expand range")
		return nil, err
	}
	result.Candidates = hosts.Len()

	logger := log.WithFields(log.Fields{
		"scan_id":     result.ScanID,
		"target":      target,
		"range":       cidr,
		"candidates":  hosts.Len(),
		"concurrency": scanner.concurrency,
	})
	logger.Info("Starting scan")

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Sends block once the buffer is full and a blocked probe keeps its unit of the cap, so memory is bounded by the cap
	outcomes := make(chan probeOutcome, scanner.concurrency)
	go scanner.dispatch(scanCtx, result.ScanID, target, hosts, outcomes)

	// Single consumer, in completion order
	for outcome := range outcomes {
		if result.Found {
			// Decided, drain
			continue
		}
		scanner.record(outcome.entry)
		if outcome.entry.Outcome == common.OutcomeCanceled {
			continue
		}
		result.Probed++
		switch {
		case outcome.matched:
			result.Found = true
			result.Address = outcome.entry.Address
			cancel()
		case outcome.err == nil:
		case common.IsReachableFailure(outcome.err):
			result.Failed++
			if result.Cause == nil {
				result.Cause = outcome.err
			}
		default:
			result.Unreachable++
		}
	}
	result.Duration = time.Since(result.Started)

	logger = logger.WithFields(log.Fields{
		"probed":      result.Probed,
		"unreachable": result.Unreachable,
		"failed":      result.Failed,
		"duration":    result.Duration,
	})
	if result.Found {
		scanner.metrics.observeScan(scanResultFound)
		logger.WithField("address", result.Address).Info("Found target")
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		scanner.metrics.observeScan(scanResultAborted)
		logger.WithError(err).Warn("Scan aborted")
		if errors.Is(err, context.DeadlineExceeded) {
			return result, fmt.Errorf("%w after %v (%v of %v hosts probed)", common.ErrScanTimeout, result.Duration.Round(time.Millisecond), result.Probed, result.Candidates)
		}
		return result, fmt.Errorf("scan aborted: %w", err)
	}
	scanner.metrics.observeScan(scanResultNotFound)
	if result.Cause != nil {
		logger = logger.WithField("cause", result.Cause.Error())
	}
	logger.Info("Target not found")
	return result, nil
}

// Start one probe per host, holding one unit of the cap each. Closes outcomes when all are done.
// Hosts are walked lazily so nothing grows with the range size.
func (scanner *Scanner) dispatch(ctx context.Context, scanID string, target string, hosts HostRange, outcomes chan<- probeOutcome) {
	sem := semaphore.NewWeighted(int64(scanner.concurrency))
	var waitGroup sync.WaitGroup
	for candidate := range hosts.All() {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled, skip the rest
			break
		}
		waitGroup.Add(1)
		go func(address string) {
			defer waitGroup.Done()
			defer sem.Release(1)
			outcomes <- scanner.runProbe(ctx, scanID, address, target)
		}(candidate.String())
	}
	waitGroup.Wait()
	close(outcomes)
}

func (scanner *Scanner) runProbe(ctx context.Context, scanID string, address string, target string) probeOutcome {
	scanner.metrics.probeStarted()
	defer scanner.metrics.probeDone()

	startTime := time.Now()
	identity, err := scanner.prober.Probe(ctx, address)
	outcome := probeOutcome{
		entry: common.ProbeEntry{
			ScanID:   scanID,
			Time:     startTime,
			Address:  address,
			Duration: time.Since(startTime),
		},
		err: err,
	}

	switch {
	case err == nil && identity.HasMAC(target):
		outcome.entry.Outcome = common.OutcomeMatched
		outcome.matched = true
	case err == nil:
		outcome.entry.Outcome = common.OutcomeNoMatch
	case ctx.Err() != nil:
		outcome.entry.Outcome = common.OutcomeCanceled
	case errors.Is(err, common.ErrAuthFailed):
		outcome.entry.Outcome = common.OutcomeAuthFailed
	case errors.Is(err, common.ErrCommandFailed):
		outcome.entry.Outcome = common.OutcomeCommandFailed
	default:
		outcome.entry.Outcome = common.OutcomeConnectionFailed
	}
	if err != nil {
		outcome.entry.Error = err.Error()
	}
	return outcome
}

func (scanner *Scanner) record(entry common.ProbeEntry) {
	scanner.metrics.observeProbe(entry)
	log.WithFields(log.Fields{
		"scan_id":  entry.ScanID,
		"device":   entry.Address,
		"outcome":  entry.Outcome,
		"duration": entry.Duration,
	}).Trace("Probe done")
	if scanner.probeHook != nil {
		scanner.probeHook(entry)
	}
}
