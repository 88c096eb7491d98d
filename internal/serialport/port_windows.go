//go:build windows

package serialport

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

type windowsPort struct {
	h       windows.Handle
	ovRead  windows.Overlapped
	ovWrite windows.Overlapped
	closing windows.Handle
}

// getPortNames queries the registry key the teacher uses to list the
// serial ports Windows currently has mapped.
func getPortNames() ([]string, error) {
	const path = `HARDWARE\DEVICEMAP\SERIALCOMM`
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return []string{}, nil
		}
		return nil, err
	}
	defer func() { _ = key.Close() }()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}
	var ports []string
	for _, name := range names {
		if v, _, err := key.GetStringValue(name); err == nil {
			ports = append(ports, v)
		}
	}
	return ports, nil
}

func openPort(path string, baud int, exclusive bool) (Port, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("invalid serial port name")
	}

	p := &windowsPort{}

	closing, err := windows.CreateEvent(nil, 1, 1, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateEvent(closing) failed: %w", err)
	}
	p.closing = closing

	// dwShareMode=0 denies any other process the handle while it's open,
	// giving the exclusive lock of spec.md §5 for free on this platform;
	// exclusive is accepted for symmetry with the POSIX backends.
	_ = exclusive
	full := `\\.\` + path
	h, err := windows.CreateFile(
		windows.StringToUTF16Ptr(full),
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_OVERLAPPED,
		0,
	)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to open port %q: %w", path, err)
	}
	p.h = h

	er, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("CreateEvent(read) failed: %w", err)
	}
	p.ovRead.HEvent = er

	ew, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("CreateEvent(write) failed: %w", err)
	}
	p.ovWrite.HEvent = ew

	if err := windows.ResetEvent(p.closing); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("ResetEvent(closing) failed: %w", err)
	}

	if err := p.configure(baud); err != nil {
		_ = p.Close()
		return nil, err
	}

	if err := windows.PurgeComm(p.h,
		windows.PURGE_TXCLEAR|windows.PURGE_TXABORT|windows.PURGE_RXCLEAR|windows.PURGE_RXABORT,
	); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("PurgeComm failed: %w", err)
	}
	return p, nil
}

// configure sets 8 data bits, no parity, one stop bit at baud — the
// wallet's fixed framing (spec.md §3).
func (p *windowsPort) configure(baud int) error {
	var d windows.DCB
	d.DCBlength = uint32(unsafe.Sizeof(d))
	if err := windows.GetCommState(p.h, &d); err != nil {
		return fmt.Errorf("GetCommState failed: %w", err)
	}
	d.BaudRate = uint32(baud)
	d.ByteSize = 8
	d.Parity = 0
	d.StopBits = 0
	d.Flags |= 1 // fBinary
	if err := windows.SetCommState(p.h, &d); err != nil {
		return fmt.Errorf("SetCommState failed: %w", err)
	}
	return nil
}

func (p *windowsPort) isOpen() bool {
	return p != nil && p.h != 0 && p.h != windows.InvalidHandle
}

func (p *windowsPort) Read(buf []byte) (int, error) {
	if !p.isOpen() {
		return 0, errors.New("serial port is not open")
	}
	var n uint32
	_ = windows.ResetEvent(p.ovRead.HEvent)
	err := windows.ReadFile(p.h, buf, &n, &p.ovRead)
	if err == nil {
		return int(n), nil
	}
	if !errors.Is(err, windows.ERROR_IO_PENDING) {
		return 0, fmt.Errorf("read failed: %w", err)
	}
	handles := []windows.Handle{p.closing, p.ovRead.HEvent}
	idx, werr := windows.WaitForMultipleObjects(handles, false, windows.INFINITE)
	if werr != nil {
		return 0, fmt.Errorf("read wait failed: %w", werr)
	}
	if idx == windows.WAIT_OBJECT_0 {
		return 0, errors.New("serial port closed")
	}
	if gerr := windows.GetOverlappedResult(p.h, &p.ovRead, &n, true); gerr != nil {
		return 0, fmt.Errorf("read failed: %w", gerr)
	}
	return int(n), nil
}

func (p *windowsPort) Write(data []byte) (int, error) {
	if !p.isOpen() {
		return 0, errors.New("serial port is not open")
	}
	if len(data) == 0 {
		return 0, nil
	}
	var n uint32
	_ = windows.ResetEvent(p.ovWrite.HEvent)
	err := windows.WriteFile(p.h, data, &n, &p.ovWrite)
	if err == nil {
		return int(n), nil
	}
	if errors.Is(err, windows.ERROR_IO_PENDING) {
		handles := []windows.Handle{p.closing, p.ovWrite.HEvent}
		idx, werr := windows.WaitForMultipleObjects(handles, false, windows.INFINITE)
		if werr != nil {
			return 0, fmt.Errorf("write wait failed: %w", werr)
		}
		if idx == windows.WAIT_OBJECT_0 {
			return 0, errors.New("serial port closed")
		}
		if gerr := windows.GetOverlappedResult(p.h, &p.ovWrite, &n, true); gerr != nil {
			return 0, fmt.Errorf("write failed: %w", gerr)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("write failed: %w", err)
}

func (p *windowsPort) Close() error {
	if p == nil {
		return nil
	}
	if p.closing != 0 {
		_ = windows.SetEvent(p.closing)
	}
	if p.h != 0 && p.h != windows.InvalidHandle {
		_ = windows.CancelIoEx(p.h, nil)
	}
	if p.ovRead.HEvent != 0 {
		_ = windows.CloseHandle(p.ovRead.HEvent)
		p.ovRead.HEvent = 0
	}
	if p.ovWrite.HEvent != 0 {
		_ = windows.CloseHandle(p.ovWrite.HEvent)
		p.ovWrite.HEvent = 0
	}
	if p.h != 0 {
		_ = windows.CloseHandle(p.h)
		p.h = 0
	}
	if p.closing != 0 {
		_ = windows.CloseHandle(p.closing)
		p.closing = 0
	}
	return nil
}
