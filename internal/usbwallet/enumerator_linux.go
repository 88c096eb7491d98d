//go:build linux

package usbwallet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chazkiker2/ryderserial-proto/internal/serialport"
)

// sysfsEnumerator walks /sys/class/tty/*/device/../{idVendor,idProduct}
// for each candidate serial device, mirroring the glob-then-sysfs-stat
// pattern the teacher's getPortNames used to validate candidates, but
// additionally reading the USB identifiers those sysfs nodes expose.
type sysfsEnumerator struct {
	id DeviceID
}

// NewEnumerator returns an Enumerator that matches id against the USB
// vendor/product identifiers of each serial device reachable through
// sysfs on Linux.
func NewEnumerator(id DeviceID) Enumerator {
	return &sysfsEnumerator{id: id}
}

func (e *sysfsEnumerator) Infos() ([]Info, error) {
	names, err := serialport.ListPortNames()
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, name := range names {
		base := filepath.Base(name)
		devDir, err := filepath.EvalSymlinks(filepath.Join("/sys/class/tty", base, "device"))
		if err != nil {
			continue
		}
		vendor, product, ok := readUSBIDs(devDir)
		if !ok || vendor != e.id.Vendor || product != e.id.Product {
			continue
		}
		infos = append(infos, &portInfo{path: name})
	}
	return infos, nil
}

func (e *sysfsEnumerator) Close() {}

// readUSBIDs walks up from a tty's sysfs device directory (which is
// typically .../usbN/N-M/N-M:1.0/ttyUSBx) looking for the idVendor and
// idProduct files sysfs exposes on the USB interface's parent device.
func readUSBIDs(dir string) (vendor, product uint16, ok bool) {
	for i := 0; i < 6 && dir != "/" && dir != "."; i++ {
		v, verr := readHex16(filepath.Join(dir, "idVendor"))
		p, perr := readHex16(filepath.Join(dir, "idProduct"))
		if verr == nil && perr == nil {
			return v, p, true
		}
		dir = filepath.Dir(dir)
	}
	return 0, 0, false
}

func readHex16(path string) (uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(trimHex(string(data)), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return uint16(v), nil
}

func trimHex(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

type portInfo struct {
	path string
}

func (p *portInfo) Path() string { return p.path }

func (p *portInfo) Open() (io.ReadWriteCloser, error) {
	return serialport.Open(p.path, serialport.DefaultBaudRate, true)
}
