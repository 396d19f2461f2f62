package common

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by a scan wraps exactly one of these.
var (
	ErrInvalidRange     = errors.New("invalid address range")
	ErrConnectionFailed = errors.New("connection failed")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrCommandFailed    = errors.New("command failed")
	ErrNotFound         = errors.New("hardware address not found")
	ErrScanTimeout      = errors.New("scan timed out")
)

// RangeError - A range descriptor that could not be expanded into hosts.
type RangeError struct {
	Range  string
	Reason string
}

func (err *RangeError) Error() string {
	return fmt.Sprintf("invalid address range %q: %v", err.Range, err.Reason)
}

func (err *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// Probe stages, in pipeline order.
const (
	StageConnect   = "connect"
	StageHandshake = "handshake"
	StageAuth      = "auth"
	StageCommand   = "command"
)

// HostError - A failure of one step of a single host probe.
// Kind is one of ErrConnectionFailed, ErrAuthFailed or ErrCommandFailed.
// Connection failures happen in the connect or handshake stage.
type HostError struct {
	Kind    error
	Stage   string
	Address string
	Method  string // Auth method, only set for auth failures
	Reason  string
}

func (err *HostError) Error() string {
	if err.Method != "" {
		return fmt.Sprintf("%v (%v) on %v: %v", err.Kind, err.Method, err.Address, err.Reason)
	}
	return fmt.Sprintf("%v on %v: %v", err.Kind, err.Address, err.Reason)
}

func (err *HostError) Unwrap() error {
	return err.Kind
}

// NewHostError - Build a host error from an underlying error. Only the error text is kept.
func NewHostError(kind error, stage string, address string, reason error) *HostError {
	hostErr := &HostError{Kind: kind, Stage: stage, Address: address}
	if reason != nil {
		hostErr.Reason = reason.Error()
	}
	return hostErr
}

// NotFoundError - No candidate reported the target. Cause is the representative
// per-host error, if any host failed in a way worth reporting.
type NotFoundError struct {
	Target string
	Cause  error
}

func (err *NotFoundError) Error() string {
	if err.Cause == nil {
		return fmt.Sprintf("hardware address %v not found on any host in the scanned range", err.Target)
	}
	return fmt.Sprintf("hardware address %v not found on any host in the scanned range (first failure: %v)", err.Target, err.Cause)
}

func (err *NotFoundError) Unwrap() []error {
	if err.Cause == nil {
		return []error{ErrNotFound}
	}
	return []error{ErrNotFound, err.Cause}
}

// IsReachableFailure - If the error came from a host that accepted the transport connection.
// Auth and command failures always did. Connection failures did if they happened after the dial.
func IsReachableFailure(err error) bool {
	if errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrCommandFailed) {
		return true
	}
	var hostErr *HostError
	return errors.As(err, &hostErr) && hostErr.Stage != "" && hostErr.Stage != StageConnect
}
