package presence

import (
	"errors"
	"fmt"
)

// ErrConnectionTimeout means the presence service never signalled ready.
var ErrConnectionTimeout = errors.New("presence: timed out waiting for ready")

// LoginError wraps a dial or handshake failure during Connect.
type LoginError struct {
	Err error
}

func (e *LoginError) Error() string { return fmt.Sprintf("presence: login failed: %v", e.Err) }
func (e *LoginError) Unwrap() error { return e.Err }

// TransportError wraps a failure to transmit a payload while Ready.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("presence: send failed: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// AssetProbeError wraps a failed cover-image existence check.
type AssetProbeError struct {
	BeatmapSetID string
	Err          error
}

func (e *AssetProbeError) Error() string {
	return fmt.Sprintf("presence: probe cover for set %s: %v", e.BeatmapSetID, e.Err)
}
func (e *AssetProbeError) Unwrap() error { return e.Err }
