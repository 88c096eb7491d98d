// Package serialport is the platform transport beneath the Connection
// Supervisor: opening, reading from, writing to, and exclusively locking a
// serial device. It is organized exactly as the teacher split it — one
// platform file per OS behind a build tag — because a host-side serial
// driver cannot share termios/overlapped-IO code across operating systems.
//
// Unlike the teacher, which exposes configurable baud/data/stop/parity, the
// wallet's firmware fixes the line at 8 data bits, no parity, one stop bit;
// only the baud rate and the OS-level exclusive lock are configurable here,
// per spec.md §3.
package serialport

import "io"

// DefaultBaudRate is used when a caller does not override Config.BaudRate.
const DefaultBaudRate = 115200

// Port is an open serial line. Read blocks until at least one byte is
// available or the port is closed, mirroring the teacher's port.read().
type Port interface {
	io.ReadWriteCloser
}

// Open opens path at baud (8-N-1) and, if exclusive is true, takes the
// OS-level exclusive lock described in spec.md §5 ("Exclusive Lock").
func Open(path string, baud int, exclusive bool) (Port, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return openPort(path, baud, exclusive)
}

// ListPortNames returns the OS device paths of every serial port currently
// present, the external collaborator spec.md §6 calls "list serial ports".
func ListPortNames() ([]string, error) {
	return getPortNames()
}
