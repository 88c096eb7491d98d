// Package ryder implements the host-side protocol driver for the Ryder
// hardware wallet's USB-serial line: a request/response engine with a
// FIFO command queue, an advisory lock layer, and a Connection Supervisor
// that opens, reconnects, and exclusively locks the device's serial port.
package ryder

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Driver is the single entry point described by spec.md §1: one Driver
// owns one serial connection, one command queue, and one lock layer. All
// state transitions run under mu, mirroring the teacher's single
// sync.RWMutex-guarded GXSerial and the single-threaded cooperative model
// spec.md §2 calls for.
type Driver struct {
	mu sync.Mutex

	cfg   Config
	state engineState

	queue    []*commandEntry
	head     *commandEntry
	watchdog *time.Timer

	locks lockLayer
	conn  *connection

	onOpen            func()
	onClose           func()
	onError           func(error)
	onFailed          func(error)
	onLocked          func()
	onWaitUserConfirm func()
}

// NewDriver constructs a Driver. cfg is normalized with the spec.md §3
// defaults before use.
func NewDriver(cfg Config) *Driver {
	cfg = cfg.normalize()
	d := &Driver{cfg: cfg, state: stateIdle}
	d.conn = newConnection(cfg, d.handleData, d.handleConnError, d.handleConnOpen, d.handleConnClose)
	return d
}

func (d *Driver) logger() *zerolog.Logger {
	return &d.cfg.Logger
}

// cmdLogEvent tags event with the command entry's correlation id, unless
// Config.CorrelationIDs has been turned off.
func (d *Driver) cmdLogEvent(event *zerolog.Event, entry *commandEntry) *zerolog.Event {
	if d.cfg.correlationIDs() {
		event = event.Str("cmd", entry.id.String())
	}
	return event
}

// Open connects to the named serial port. Idempotent while already open
// (spec.md §4.4).
func (d *Driver) Open(port string) error {
	return d.conn.open(port)
}

// Close disconnects, failing every outstanding entry with ErrCleared and
// releasing every lock waiter before tearing down the port.
func (d *Driver) Close() error {
	d.Clear()
	return d.conn.close()
}

// Clear fails the head and every queued entry with ErrCleared, releases
// every outstanding lock, and returns the engine to IDLE — spec.md §4.4's
// "clear()" operation.
func (d *Driver) Clear() {
	d.mu.Lock()
	d.failAllLocked(ErrCleared)
	d.mu.Unlock()
	d.locks.releaseAll()
}

// Send enqueues data as a new command. If prepend is true the entry jumps
// ahead of everything queued (but never displaces an in-flight head), the
// mechanism spec.md §4.4 reserves for CANCEL injection.
func (d *Driver) Send(data []byte, prepend bool) *Completion {
	entry := newCommandEntry(data)
	d.mu.Lock()
	d.submitLocked(entry, prepend)
	d.mu.Unlock()
	return entry.completion
}

// Cancel prepends a CANCEL opcode ahead of the queue, per spec.md §6.
func (d *Driver) Cancel() *Completion {
	return d.Send([]byte{OpCancel.Byte()}, true)
}

// Lock acquires the advisory lock layer described by spec.md §4.3. The
// returned Completion resolves once the caller reaches the head of the
// lock queue.
func (d *Driver) Lock() *Completion {
	return d.locks.lock()
}

// Unlock releases the current lock holder's turn.
func (d *Driver) Unlock() {
	d.locks.unlock()
}

// Locked reports whether any lock is outstanding.
func (d *Driver) Locked() bool {
	return d.locks.locked()
}

// Sequence runs fn under the lock layer: it acquires a lock, waits for
// fn's own async Completion to settle, then releases the lock regardless
// of outcome. fn must return a non-nil Completion — spec.md §4.3's
// "sequence" combinator exists precisely because an async fn's work
// outlives the call that starts it, so a synchronous return is treated as
// a caller bug and reported as ErrSequenceNotAsync.
//
// If ctx expires before the ticket becomes head, the ticket is abandoned
// via release rather than left in the queue: lock.go's ticket queue only
// advances on unlock(), and a ticket nobody is waiting on would otherwise
// never be unlocked, wedging every later lock()/Sequence() call.
func (d *Driver) Sequence(ctx context.Context, fn func() *Completion) *Completion {
	out := newCompletion()
	go func() {
		lockC := d.Lock()
		if _, err := lockC.Wait(ctx); err != nil {
			d.locks.release(lockC)
			out.fire(nil, err)
			return
		}
		defer d.Unlock()

		inner := fn()
		if inner == nil {
			out.fire(nil, ErrSequenceNotAsync)
			return
		}
		val, err := inner.Wait(ctx)
		out.fire(val, err)
	}()
	return out
}

// SetOnOpen registers the callback fired once the port successfully opens
// (including on reconnect).
func (d *Driver) SetOnOpen(fn func()) { d.onOpen = fn }

// SetOnClose registers the callback fired whenever the port closes,
// expectedly or not.
func (d *Driver) SetOnClose(fn func()) { d.onClose = fn }

// SetOnError registers the callback fired on transport-level errors
// (failed reads/writes, reconnect failures).
func (d *Driver) SetOnError(fn func(error)) { d.onError = fn }

// SetOnFailed registers the callback fired when an entry is rejected
// while it held the head (watchdog, disconnect, device error, strict
// LOCKED policy).
func (d *Driver) SetOnFailed(fn func(error)) { d.onFailed = fn }

// SetOnLocked registers the callback fired whenever the device reports
// its own LOCKED state (spec.md §4.2), independent of Config.RejectOnLocked.
func (d *Driver) SetOnLocked(fn func()) { d.onLocked = fn }

// SetOnWaitUserConfirm registers the callback fired when the device asks
// the driver to wait for a physical user confirmation.
func (d *Driver) SetOnWaitUserConfirm(fn func()) { d.onWaitUserConfirm = fn }

func (d *Driver) emitError(err error) {
	if d.onError != nil {
		d.onError(err)
	}
}

func (d *Driver) emitFailed(err error) {
	if d.onFailed != nil {
		d.onFailed(err)
	}
}

func (d *Driver) emitLocked() {
	if d.onLocked != nil {
		d.onLocked()
	}
}

func (d *Driver) emitWaitUserConfirm() {
	if d.onWaitUserConfirm != nil {
		d.onWaitUserConfirm()
	}
}

func (d *Driver) handleConnOpen() {
	if d.onOpen != nil {
		d.onOpen()
	}
}

func (d *Driver) handleConnClose() {
	d.mu.Lock()
	d.failAllLocked(ErrDisconnected)
	d.mu.Unlock()
	if d.onClose != nil {
		d.onClose()
	}
}

func (d *Driver) handleConnError(err error) {
	d.logger().Warn().Err(err).Msg("connection error")
	d.emitError(err)
}
