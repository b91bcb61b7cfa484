package device

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an operation is attempted on a closed session.
	ErrNotConnected = errors.New("device: not connected")

	// ErrResponseTimeout is returned when the device did not deliver the expected
	// number of response segments before the read timeout.
	ErrResponseTimeout = errors.New("device: response timeout")

	// ErrResponseMismatch is returned when a response arrived but its shape or
	// tokens do not match what was expected for the command sent.
	ErrResponseMismatch = errors.New("device: response mismatch")
)

// ValidationError rejects scan parameters before any I/O happens. It never
// reaches the device.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("device: invalid scan config: %s", e.Reason)
}
