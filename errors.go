package ryder

import (
	"errors"
	"fmt"
)

// Driver-reported errors (spec.md §7).
var (
	// ErrDisconnected is returned when send() is called with no open port,
	// or delivered to the head when the port closes mid-flight.
	ErrDisconnected = errors.New("ryder: disconnected")
	// ErrWatchdog fails the head when no inbound progress occurs within
	// the watchdog duration.
	ErrWatchdog = errors.New("ryder: watchdog timeout")
	// ErrCleared fails every entry active when clear() or close() runs.
	ErrCleared = errors.New("ryder: cleared")
	// ErrLocked fails every queued entry when the device reports LOCKED
	// under Config.RejectOnLocked.
	ErrLocked = errors.New("ryder: device locked")
	// ErrSequenceNotAsync is returned by Sequence when the callback does
	// not return a Completion of its own (see Driver.Sequence).
	ErrSequenceNotAsync = errors.New("ryder: sequence callback did not return an async completion")
	// ErrUnknownResponse is returned for any byte the decoder cannot place
	// in the known alphabet while awaiting a response.
	ErrUnknownResponse = errors.New("ryder: unknown response byte")
)

// DeviceErrorCode names the device-reported error range, byte 246-255.
type DeviceErrorCode byte

// Named device error codes (spec.md §7).
const (
	ErrUnknownCommand     DeviceErrorCode = 246
	ErrNotInitialized     DeviceErrorCode = 247
	ErrMemoryError        DeviceErrorCode = 248
	ErrAppDomainTooLong   DeviceErrorCode = 249
	ErrAppDomainInvalid   DeviceErrorCode = 250
	ErrMnemonicTooLong    DeviceErrorCode = 251
	ErrMnemonicInvalid    DeviceErrorCode = 252
	ErrGenerateMnemonic   DeviceErrorCode = 253
	ErrInputTimeout       DeviceErrorCode = 254
	ErrNotImplemented     DeviceErrorCode = 255
)

var deviceErrorNames = map[DeviceErrorCode]string{
	ErrUnknownCommand:   "UNKNOWN_COMMAND",
	ErrNotInitialized:   "NOT_INITIALIZED",
	ErrMemoryError:      "MEMORY_ERROR",
	ErrAppDomainTooLong: "APP_DOMAIN_TOO_LONG",
	ErrAppDomainInvalid: "APP_DOMAIN_INVALID",
	ErrMnemonicTooLong:  "MNEMONIC_TOO_LONG",
	ErrMnemonicInvalid:  "MNEMONIC_INVALID",
	ErrGenerateMnemonic: "GENERATE_MNEMONIC",
	ErrInputTimeout:     "INPUT_TIMEOUT",
	ErrNotImplemented:   "NOT_IMPLEMENTED",
}

// DeviceError wraps a device-reported error byte (246-255). Compare with
// errors.As, or against the kind via (*DeviceError).Code.
type DeviceError struct {
	Code DeviceErrorCode
}

func (e *DeviceError) Error() string {
	if name, ok := deviceErrorNames[e.Code]; ok {
		return fmt.Sprintf("ryder: device error %s (0x%02x)", name, byte(e.Code))
	}
	return fmt.Sprintf("ryder: device error 0x%02x", byte(e.Code))
}

// newDeviceError builds the typed error for a response byte already known
// to be in the device error range.
func newDeviceError(b byte) error {
	return &DeviceError{Code: DeviceErrorCode(b)}
}
