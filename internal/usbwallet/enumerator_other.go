//go:build !linux

package usbwallet

import (
	"io"

	"github.com/chazkiker2/ryderserial-proto/internal/serialport"
)

// listEnumerator is the darwin/windows fallback: those platforms don't
// expose USB vendor/product IDs through the same path a plain serial
// port listing walks, so every present port is offered as a candidate
// and it's the caller's job to confirm it's the wallet (e.g. by sending
// a wake byte and checking for a response). Non-goal per spec.md §6,
// which only requires "enough to find candidate devices."
type listEnumerator struct {
	id DeviceID
}

// NewEnumerator returns an Enumerator. On this platform it does not
// filter by id; see the listEnumerator doc comment.
func NewEnumerator(id DeviceID) Enumerator {
	return &listEnumerator{id: id}
}

func (e *listEnumerator) Infos() ([]Info, error) {
	names, err := serialport.ListPortNames()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		infos = append(infos, &portInfo{path: name})
	}
	return infos, nil
}

func (e *listEnumerator) Close() {}

type portInfo struct {
	path string
}

func (p *portInfo) Path() string { return p.path }

func (p *portInfo) Open() (io.ReadWriteCloser, error) {
	return serialport.Open(p.path, serialport.DefaultBaudRate, true)
}
