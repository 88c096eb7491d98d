// Package usbwallet filters the OS's serial port listing down to devices
// matching a USB vendor/product identifier, the "thin filter" external
// collaborator described by spec.md §1/§6.
package usbwallet

import "io"

// DeviceID is a combined vendor/product identifier used to recognize a
// Ryder device (or its simulator) on the USB bus.
type DeviceID struct {
	Vendor  uint16
	Product uint16
}

// Ryder is the USB vendor/product identifier pair of spec.md §6.
var Ryder = DeviceID{Vendor: 0x10c4, Product: 0xea60}

// Enumerator lists the serial ports whose USB identifiers match a DeviceID.
type Enumerator interface {
	// Infos returns the candidate devices matching the enumerator's ID.
	Infos() ([]Info, error)
	// Close releases any resources held by the enumerator.
	Close()
}

// Info identifies one candidate device and knows how to open it.
type Info interface {
	// Path returns the OS device path (e.g. "/dev/ttyUSB0", "COM3").
	Path() string
	// Open opens a connection to the device.
	Open() (io.ReadWriteCloser, error)
}
