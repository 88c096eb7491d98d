//go:build darwin

package serialport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

type darwinPort struct {
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

func getPortNames() ([]string, error) {
	patterns := []string{"/dev/tty.*", "/dev/cu.*"}
	seen := make(map[string]struct{})
	var devices []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, device := range matches {
			if _, ok := seen[device]; !ok {
				seen[device] = struct{}{}
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
	p := &darwinPort{f: os.NewFile(uintptr(fd), path), fd: fd}

	if exclusive {
		if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("TIOCEXCL %s: %w", path, err)
		}
	}

	t, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
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
	t.Ispeed = uint64(speed)
	t.Ospeed = uint64(speed)
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	t.Cflag |= unix.CS8
	t.Iflag &^= unix.INPCK | unix.ISTRIP
	t.Cflag &^= unix.CRTSCTS

	if err := unix.IoctlSetTermios(fd, unix.TIOCSETA, t); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("tcsetattr %s: %w", path, err)
	}
	return p, nil
}

func (p *darwinPort) Read(b []byte) (int, error) {
	if p.f == nil {
		return 0, errors.New("serial port not open")
	}
	return p.f.Read(b)
}

func (p *darwinPort) Write(b []byte) (int, error) {
	if p.f == nil {
		return 0, errors.New("serial port not open")
	}
	return p.f.Write(b)
}

func (p *darwinPort) Close() error {
	if p.f == nil {
		return nil
	}
	f := p.f
	p.f = nil
	return f.Close()
}
