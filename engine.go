package ryder

import (
	"time"

	"github.com/chazkiker2/ryderserial-proto/internal/frame"
)

// engineState is the {IDLE, SENDING, READING} state machine of spec.md §4.2.
type engineState int

const (
	stateIdle engineState = iota
	stateSending
	stateReading
)

func (s engineState) String() string {
	switch s {
	case stateIdle:
		return "IDLE"
	case stateSending:
		return "SENDING"
	case stateReading:
		return "READING"
	default:
		return "UNKNOWN"
	}
}

// submitLocked appends (or prepends) a new entry to the queue and nudges
// the engine. Caller must hold d.mu.
func (d *Driver) submitLocked(entry *commandEntry, prepend bool) {
	if prepend {
		d.queue = append([]*commandEntry{entry}, d.queue...)
	} else {
		d.queue = append(d.queue, entry)
	}
	d.nudgeLocked()
}

// nudgeLocked advances the queue while the engine is IDLE and entries are
// pending. If the port is not open, it fails each popped entry with
// ErrDisconnected and tries the next one, per spec.md §4.4 ("failing the
// head with DISCONNECTED" at the point of dequeue). Caller must hold d.mu.
func (d *Driver) nudgeLocked() {
	for d.state == stateIdle && len(d.queue) > 0 {
		entry := d.queue[0]
		d.queue = d.queue[1:]

		if d.conn == nil || !d.conn.isOpen() {
			d.cmdLogEvent(d.logger().Warn(), entry).Msg("dequeued command with no open port")
			entry.reject(ErrDisconnected)
			continue
		}

		d.head = entry
		d.state = stateSending
		if _, err := d.conn.write(entry.data); err != nil {
			d.logger().Warn().Err(err).Msg("write failed, failing head")
			d.head = nil
			d.state = stateIdle
			entry.reject(ErrDisconnected)
			d.emitError(err)
			continue
		}
		d.armWatchdogLocked()
		return
	}
}

// armWatchdogLocked (re)arms the single-shot watchdog for the current
// head. Caller must hold d.mu.
func (d *Driver) armWatchdogLocked() {
	d.clearWatchdogLocked()
	head := d.head
	d.watchdog = time.AfterFunc(d.cfg.watchdogDuration, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.head != head || d.state == stateIdle {
			return
		}
		d.cmdLogEvent(d.logger().Warn(), head).Msg("watchdog expired")
		d.head = nil
		d.state = stateIdle
		head.reject(ErrWatchdog)
		d.emitFailed(ErrWatchdog)
		d.nudgeLocked()
	})
}

// clearWatchdogLocked cancels any armed watchdog. Caller must hold d.mu.
func (d *Driver) clearWatchdogLocked() {
	if d.watchdog != nil {
		d.watchdog.Stop()
		d.watchdog = nil
	}
}

// handleData is the Connection Supervisor's "data" callback: it drives the
// Frame Decoder across every byte in buf, possibly completing several
// entries in one call (spec.md §4.1, "multi-response buffers").
func (d *Driver) handleData(buf []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < len(buf); i++ {
		b := buf[i]
		switch d.state {
		case stateIdle:
			d.logger().Warn().Uint8("byte", b).Msg("discarding byte with no head entry")
		case stateSending:
			d.handleSendingByteLocked(b)
		case stateReading:
			d.handleReadingByteLocked(b)
		}
	}
}

// handleSendingByteLocked interprets one response byte while awaiting a
// fresh response (spec.md §4.1 table, §4.2 transitions). Caller holds d.mu.
func (d *Driver) handleSendingByteLocked(b byte) {
	head := d.head
	if head == nil {
		d.logger().Warn().Msg("SENDING state with no head entry")
		d.state = stateIdle
		return
	}

	switch {
	case b == frame.OK:
		d.completeHeadLocked(head, byte(frame.OK))
	case b == frame.SendInput:
		d.completeHeadLocked(head, byte(frame.SendInput))
	case b == frame.Rejected:
		d.completeHeadLocked(head, byte(frame.Rejected))
	case b == frame.Output:
		d.clearWatchdogLocked()
		d.state = stateReading
		d.armWatchdogLocked()
	case b == frame.WaitUserConfirm:
		d.clearWatchdogLocked()
		d.armWatchdogLocked()
		d.emitWaitUserConfirm()
	case b == frame.Locked:
		d.emitLocked()
		if d.cfg.RejectOnLocked {
			d.failAllLocked(ErrLocked)
		}
		// else: remain SENDING, keep scanning the rest of the buffer.
	case frame.IsError(b):
		d.rejectHeadLocked(head, newDeviceError(b))
	default:
		d.rejectHeadLocked(head, ErrUnknownResponse)
	}
}

// handleReadingByteLocked feeds one byte of an OUTPUT record to the head's
// Reader. Caller holds d.mu.
func (d *Driver) handleReadingByteLocked(b byte) {
	head := d.head
	if head == nil {
		d.logger().Warn().Msg("READING state with no head entry")
		d.state = stateIdle
		return
	}
	if head.reader.Feed(b) == frame.Done {
		output := head.reader.Output
		d.completeHeadLocked(head, output)
	}
}

// completeHeadLocked resolves the current head with val, returns the
// engine to IDLE, and advances the queue. Caller holds d.mu.
func (d *Driver) completeHeadLocked(head *commandEntry, val any) {
	d.clearWatchdogLocked()
	d.head = nil
	d.state = stateIdle
	head.resolve(val)
	d.nudgeLocked()
}

// rejectHeadLocked fails the current head with err, returns the engine to
// IDLE, and advances the queue. Caller holds d.mu.
func (d *Driver) rejectHeadLocked(head *commandEntry, err error) {
	d.clearWatchdogLocked()
	d.head = nil
	d.state = stateIdle
	head.reject(err)
	d.emitFailed(err)
	d.nudgeLocked()
}

// failAllLocked rejects the head (if any) and every queued entry with err,
// and returns the engine to IDLE. Used by the strict LOCKED policy and by
// Clear. Caller holds d.mu.
func (d *Driver) failAllLocked(err error) {
	d.clearWatchdogLocked()
	if d.head != nil {
		d.head.reject(err)
		d.emitFailed(err)
		d.head = nil
	}
	for _, entry := range d.queue {
		entry.reject(err)
	}
	d.queue = nil
	d.state = stateIdle
}
