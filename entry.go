package ryder

import (
	"github.com/google/uuid"

	"github.com/chazkiker2/ryderserial-proto/internal/frame"
)

// commandEntry is the Command Entry of spec.md §3: the outbound bytes, a
// single completion to resolve or reject, and the READING-mode fields
// (esc_pending/output_buffer) the spec requires to live on the entry so a
// prepend or clear() drops them atomically with it. Mutated only by the
// engine goroutine/mutex that owns the head slot.
type commandEntry struct {
	id         uuid.UUID
	data       []byte
	completion *Completion
	reader     frame.Reader
}

func newCommandEntry(data []byte) *commandEntry {
	return &commandEntry{
		id:         uuid.New(),
		data:       data,
		completion: newCompletion(),
	}
}

// resolve fires the entry's completion with a successful value exactly
// once; see Completion.fire.
func (e *commandEntry) resolve(val any) {
	e.completion.fire(val, nil)
}

// reject fires the entry's completion with err exactly once.
func (e *commandEntry) reject(err error) {
	e.completion.fire(nil, err)
}
