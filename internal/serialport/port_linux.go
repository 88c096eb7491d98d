//go:build linux

package serialport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

type linuxPort struct {
	f  *os.File
	fd int
}

var toUnixBaudRate = map[int]uint32{
	50: unix.B50, 75: unix.B75, 110: unix.B110, 134: unix.B134,
	150: unix.B150, 200: unix.B200, 300: unix.B300, 600: unix.B600,
	1200: unix.B1200, 1800: unix.B1800, 2400: unix.B2400, 4800: unix.B4800,
	9600: unix.B9600, 19200: unix.B19200, 38400: unix.B38400,
	57600: unix.B57600, 115200: unix.B115200,
}

// getPortNames mirrors the teacher's glob-then-sysfs-stat pattern for
// finding tty device nodes actually backed by a kernel device.
func getPortNames() ([]string, error) {
	patterns := []string{
		"/dev/ttyS*", "/dev/ttyUSB*", "/dev/ttyACM*", "/dev/ttyAMA*",
	}
	var devices []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, device := range matches {
			sysPath := filepath.Join("/sys/class/tty", filepath.Base(device), "device")
			if _, err := os.Stat(sysPath); err == nil {
				devices = append(devices, device)
			}
		}
	}
	return devices, nil
}

func openPort(path string, baud int, exclusive bool) (Port, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	p := &linuxPort{f: os.NewFile(uintptr(fd), path), fd: fd}

	if exclusive {
		if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("TIOCEXCL %s: %w", path, err)
		}
	}

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("tcgetattr %s: %w", path, err)
	}
	t.Cflag |= unix.CLOCAL | unix.CREAD
	t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHOK | unix.ECHONL | unix.ISIG | unix.IEXTEN
	t.Oflag &^= unix.OPOST | unix.ONLCR | unix.OCRNL
	t.Iflag &^= unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IGNBRK | unix.IXON | unix.IXOFF
	speed, ok := toUnixBaudRate[baud]
	if !ok {
		_ = p.Close()
		return nil, fmt.Errorf("unsupported baud rate: %d", baud)
	}
	t.Ispeed = speed
	t.Ospeed = speed
	// 8 data bits, no parity, one stop bit — the wallet's fixed framing.
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	t.Cflag |= unix.CS8
	t.Iflag &^= unix.INPCK | unix.ISTRIP
	t.Cflag &^= unix.CRTSCTS

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("tcsetattr %s: %w", path, err)
	}
	_ = unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)
	return p, nil
}

func (p *linuxPort) Read(b []byte) (int, error) {
	if p.f == nil {
		return 0, errors.New("serial port not open")
	}
	return p.f.Read(b)
}

func (p *linuxPort) Write(b []byte) (int, error) {
	if p.f == nil {
		return 0, errors.New("serial port not open")
	}
	return p.f.Write(b)
}

func (p *linuxPort) Close() error {
	if p.f == nil {
		return nil
	}
	f := p.f
	p.f = nil
	return f.Close()
}
