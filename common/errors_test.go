package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostErrorKinds(t *testing.T) {
	for _, kind := range []error{ErrConnectionFailed, ErrAuthFailed, ErrCommandFailed} {
		err := fmt.Errorf("probe: %w", NewHostError(kind, StageConnect, "10.0.0.1", errors.New("boom")))
		assert.True(t, errors.Is(err, kind))
		var hostErr *HostError
		require.True(t, errors.As(err, &hostErr))
		assert.Equal(t, "10.0.0.1", hostErr.Address)
		assert.Equal(t, "boom", hostErr.Reason)
		assert.Contains(t, err.Error(), "10.0.0.1")
	}
}

func TestHostErrorMethod(t *testing.T) {
	err := &HostError{Kind: ErrAuthFailed, Address: "10.0.0.1", Method: "publickey", Reason: "denied"}
	assert.Equal(t, "authentication failed (publickey) on 10.0.0.1: denied", err.Error())
	assert.Equal(t, "connection failed on 10.0.0.1: ", NewHostError(ErrConnectionFailed, StageConnect, "10.0.0.1", nil).Error())
}

func TestIsReachableFailure(t *testing.T) {
	assert.True(t, IsReachableFailure(NewHostError(ErrAuthFailed, StageAuth, "a", nil)))
	assert.True(t, IsReachableFailure(NewHostError(ErrCommandFailed, StageCommand, "a", nil)))
	assert.True(t, IsReachableFailure(&HostError{Kind: ErrAuthFailed, Address: "a"}))
	assert.True(t, IsReachableFailure(fmt.Errorf("wrapped: %w", NewHostError(ErrConnectionFailed, StageHandshake, "a", nil))))
	assert.False(t, IsReachableFailure(NewHostError(ErrConnectionFailed, StageConnect, "a", nil)))
	assert.False(t, IsReachableFailure(&HostError{Kind: ErrConnectionFailed, Address: "a"}))
	assert.False(t, IsReachableFailure(ErrConnectionFailed))
	assert.False(t, IsReachableFailure(nil))
}

func TestRangeError(t *testing.T) {
	err := error(&RangeError{Range: "x", Reason: "bad"})
	assert.True(t, errors.Is(err, ErrInvalidRange))
	assert.Equal(t, `invalid address range "x": bad`, err.Error())
}

func TestNotFoundError(t *testing.T) {
	err := error(&NotFoundError{Target: "aa:bb:cc:dd:ee:ff"})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAuthFailed))

	cause := NewHostError(ErrAuthFailed, StageAuth, "10.0.0.7", errors.New("denied"))
	err = &NotFoundError{Target: "aa:bb:cc:dd:ee:ff", Cause: cause}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, ErrAuthFailed))
	var hostErr *HostError
	require.True(t, errors.As(err, &hostErr))
	assert.Equal(t, "10.0.0.7", hostErr.Address)
	assert.Contains(t, err.Error(), "10.0.0.7")
}

func TestScanResultErr(t *testing.T) {
	assert.NoError(t, (&ScanResult{Found: true, Address: "10.0.0.1"}).Err())
	err := (&ScanResult{Target: "aa:bb:cc:dd:ee:ff"}).Err()
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewScanEntry(t *testing.T) {
	entry := NewScanEntry(&ScanResult{
		ScanID:      "id",
		Target:      "aa:bb:cc:dd:ee:ff",
		Range:       "10.0.0.0/30",
		Cause:       NewHostError(ErrCommandFailed, StageCommand, "10.0.0.2", errors.New("exit 1")),
		Candidates:  2,
		Probed:      2,
		Unreachable: 1,
		Failed:      1,
	})
	assert.False(t, entry.Found)
	assert.Equal(t, 2, entry.Candidates)
	assert.Equal(t, "command failed on 10.0.0.2: exit 1", entry.Error)
	assert.Empty(t, NewScanEntry(&ScanResult{Found: true}).Error)
}

func TestDeviceIdentityHasMAC(t *testing.T) {
	identity := DeviceIdentity{MACs: []string{"aa:bb:cc:dd:ee:ff"}}
	assert.True(t, identity.HasMAC("aa:bb:cc:dd:ee:ff"))
	assert.False(t, identity.HasMAC("aa:bb:cc:dd:ee:00"))
	assert.False(t, DeviceIdentity{}.HasMAC("aa:bb:cc:dd:ee:ff"))
}
