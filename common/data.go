package common

import (
	"time"
)

// Probe outcomes, as recorded in probe entries.
const (
	OutcomeMatched          = "matched"
	OutcomeNoMatch          = "no_match"
	OutcomeConnectionFailed = "connection_failed"
	OutcomeAuthFailed       = "auth_failed"
	OutcomeCommandFailed    = "command_failed"
	OutcomeCanceled         = "canceled"
)

// DeviceIdentity - The hardware addresses one host reported.
type DeviceIdentity struct {
	Address string
	MACs    []string // Lowercase, unique, in order of appearance
}

// HasMAC - If the host reported the (already normalized) hardware address.
func (identity DeviceIdentity) HasMAC(mac string) bool {
	for _, candidate := range identity.MACs {
		if candidate == mac {
			return true
		}
	}
	return false
}

// ProbeEntry - One completed probe.
type ProbeEntry struct {
	ScanID   string
	Time     time.Time
	Address  string
	Outcome  string
	Duration time.Duration
	Error    string
}

// ScanResult - Result of a whole scan.
type ScanResult struct {
	ScanID      string
	Target      string
	Range       string
	Found       bool
	Address     string
	Cause       error // Representative error when not found, may be nil
	Candidates  int
	Probed      int
	Unreachable int
	Failed      int
	Started     time.Time
	Duration    time.Duration
}

// Err - Nil if found, otherwise a *NotFoundError carrying the cause.
func (result *ScanResult) Err() error {
	if result.Found {
		return nil
	}
	return &NotFoundError{Target: result.Target, Cause: result.Cause}
}

// ScanEntry - Flattened scan result for storage.
type ScanEntry struct {
	ScanID      string
	Time        time.Time
	Target      string
	Range       string
	Found       bool
	Address     string
	Candidates  int
	Probed      int
	Unreachable int
	Failed      int
	Duration    time.Duration
	Error       string
}

// NewScanEntry - Flatten a scan result.
func NewScanEntry(result *ScanResult) ScanEntry {
	entry := ScanEntry{
		ScanID:      result.ScanID,
		Time:        result.Started,
		Target:      result.Target,
		Range:       result.Range,
		Found:       result.Found,
		Address:     result.Address,
		Candidates:  result.Candidates,
		Probed:      result.Probed,
		Unreachable: result.Unreachable,
		Failed:      result.Failed,
		Duration:    result.Duration,
	}
	if result.Cause != nil {
		entry.Error = result.Cause.Error()
	}
	return entry
}
