package ryder

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazkiker2/ryderserial-proto/internal/serialport"
)

// fakePort is an in-memory stand-in for serialport.Port: Write succeeds
// and records its argument, Read blocks until Close runs (failRead sets
// readErr and closes) and then returns readErr, or io.EOF if none is set.
type fakePort struct {
	mu      sync.Mutex
	writes  [][]byte
	readErr error
	closed  chan struct{}
}

func newFakePort() *fakePort {
	return &fakePort{closed: make(chan struct{})}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	p.writes = append(p.writes, append([]byte{}, b...))
	p.mu.Unlock()
	return len(b), nil
}

func (p *fakePort) Read(_ []byte) (int, error) {
	<-p.closed
	p.mu.Lock()
	err := p.readErr
	p.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return 0, io.EOF
}

func (p *fakePort) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

func (p *fakePort) failRead(err error) {
	p.mu.Lock()
	p.readErr = err
	p.mu.Unlock()
	_ = p.Close()
}

func (p *fakePort) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

// attachFakePort wires a fakePort directly into the driver's connection
// without starting the reader goroutine, so tests can drive handleData
// deterministically instead of racing a real byte stream.
func attachFakePort(d *Driver) *fakePort {
	fp := newFakePort()
	d.conn.mu.Lock()
	d.conn.port = fp
	d.conn.portName = "fake"
	d.conn.mu.Unlock()
	return fp
}

func testDriver(t *testing.T, opts ...func(*Config)) (*Driver, *fakePort) {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := NewDriver(cfg)
	fp := attachFakePort(d)
	t.Cleanup(func() { _ = d.conn.close() })
	return d, fp
}

func withWatchdog(dur time.Duration) func(*Config) {
	return func(c *Config) { c.watchdogDuration = dur }
}

func withRejectOnLocked() func(*Config) {
	return func(c *Config) { c.RejectOnLocked = true }
}

func waitResult(t *testing.T, c *Completion) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.Wait(ctx)
}

// Scenario 1 (spec.md §8): single OK.
func TestScenarioSingleOK(t *testing.T) {
	d, _ := testDriver(t)
	c := d.Send([]byte{OpInfo.Byte()}, false)
	d.handleData([]byte{0x01})

	val, err := waitResult(t, c)
	require.NoError(t, err)
	assert.Equal(t, byte(1), val)
}

// Scenario 2: output round-trip with escape.
func TestScenarioOutputRoundTripWithEscape(t *testing.T) {
	d, _ := testDriver(t)
	c := d.Send([]byte{OpExportPublicIdentities.Byte()}, false)
	d.handleData([]byte{0x04, 0xAA, 0x06, 0x05, 0xBB, 0x05})

	val, err := waitResult(t, c)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0x05, 0xBB}, val)
}

// Scenario 3: pipelined responses delivered in one buffer.
func TestScenarioPipelinedResponsesInOneBuffer(t *testing.T) {
	d, _ := testDriver(t)
	a := d.Send([]byte{OpInfo.Byte()}, false)
	b := d.Send([]byte{OpInfo.Byte()}, false)

	d.handleData([]byte{0x01, 0x02})

	aVal, aErr := waitResult(t, a)
	require.NoError(t, aErr)
	assert.Equal(t, byte(1), aVal)

	bVal, bErr := waitResult(t, b)
	require.NoError(t, bErr)
	assert.Equal(t, byte(2), bVal)

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, stateIdle, d.state)
	assert.Empty(t, d.queue)
}

// Scenario 4: user confirm then output.
func TestScenarioUserConfirmThenOutput(t *testing.T) {
	d, _ := testDriver(t)
	var confirmed bool
	d.SetOnWaitUserConfirm(func() { confirmed = true })

	c := d.Send([]byte{OpStartEncrypt.Byte()}, false)
	d.handleData([]byte{0x0A})
	assert.True(t, confirmed)

	_, _, ok := c.Result()
	assert.False(t, ok, "WAIT_USER_CONFIRM must not complete the head")

	d.handleData([]byte{0x04, 0xDE, 0xAD, 0x05})
	val, err := waitResult(t, c)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, val)
}

// Scenario 5: watchdog.
func TestScenarioWatchdog(t *testing.T) {
	d, _ := testDriver(t, withWatchdog(20*time.Millisecond))
	c := d.Send([]byte{OpInfo.Byte()}, false)

	_, err := waitResult(t, c)
	assert.ErrorIs(t, err, ErrWatchdog)

	d.mu.Lock()
	assert.Equal(t, stateIdle, d.state)
	d.mu.Unlock()

	next := d.Send([]byte{OpInfo.Byte()}, false)
	d.handleData([]byte{0x01})
	val, err := waitResult(t, next)
	require.NoError(t, err)
	assert.Equal(t, byte(1), val)
}

// Scenario 6: LOCKED under the strict policy fails every queued entry.
func TestScenarioLockedUnderStrictPolicy(t *testing.T) {
	d, _ := testDriver(t, withRejectOnLocked())
	var lockedCount int
	d.SetOnLocked(func() { lockedCount++ })

	a := d.Send([]byte{OpInfo.Byte()}, false)
	b := d.Send([]byte{OpInfo.Byte()}, false)
	c := d.Send([]byte{OpInfo.Byte()}, false)

	d.handleData([]byte{0x0B})

	for _, entry := range []*Completion{a, b, c} {
		_, err := waitResult(t, entry)
		assert.ErrorIs(t, err, ErrLocked)
	}
	assert.Equal(t, 1, lockedCount)

	d.mu.Lock()
	assert.Equal(t, stateIdle, d.state)
	assert.Empty(t, d.queue)
	d.mu.Unlock()
}

// Scenario: device error byte rejects the head with a typed DeviceError.
func TestDeviceErrorRejectsHead(t *testing.T) {
	d, _ := testDriver(t)
	c := d.Send([]byte{OpInfo.Byte()}, false)
	d.handleData([]byte{byte(ErrNotInitialized)})

	_, err := waitResult(t, c)
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, ErrNotInitialized, devErr.Code)
}

// A prepended CANCEL jumps the queue but never displaces an in-flight head.
func TestCancelPrependsAheadOfQueueNotHead(t *testing.T) {
	d, fp := testDriver(t)
	head := d.Send([]byte{OpInfo.Byte()}, false)
	queued := d.Send([]byte{OpInfo.Byte()}, false)
	cancel := d.Cancel()

	d.mu.Lock()
	require.Len(t, d.queue, 2)
	assert.Same(t, cancel, d.queue[0].completion)
	d.mu.Unlock()

	d.handleData([]byte{0x01, 0x01, 0x01})
	for _, c := range []*Completion{head, cancel, queued} {
		_, err := waitResult(t, c)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fp.writeCount())
}

// Clear fails every outstanding entry, releases every lock waiter, and
// returns IDLE.
func TestClearFailsEverythingAndReleasesLocks(t *testing.T) {
	d, _ := testDriver(t)
	head := d.Send([]byte{OpInfo.Byte()}, false)
	queued := d.Send([]byte{OpInfo.Byte()}, false)
	lockC := d.Lock()
	second := d.Lock()

	d.Clear()

	for _, c := range []*Completion{head, queued} {
		_, err := waitResult(t, c)
		assert.ErrorIs(t, err, ErrCleared)
	}
	_, err := waitResult(t, lockC)
	assert.NoError(t, err)
	_, err = waitResult(t, second)
	assert.NoError(t, err)
	assert.False(t, d.Locked())
}

// Disconnected: submitting with no open port fails immediately.
func TestSendWithClosedPortFailsDisconnected(t *testing.T) {
	d := NewDriver(Config{})
	c := d.Send([]byte{OpInfo.Byte()}, false)
	_, err := waitResult(t, c)
	assert.ErrorIs(t, err, ErrDisconnected)
}

// A Sequence whose ctx expires before its ticket becomes head must not
// wedge the lock layer for every later caller.
func TestSequenceCancelWhileQueuedDoesNotWedgeLockLayer(t *testing.T) {
	d, _ := testDriver(t)

	holder := d.Lock()
	_, _, ok := holder.Result()
	require.True(t, ok, "first lock() resolves immediately")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	seq := d.Sequence(ctx, func() *Completion { return resolved(nil) })

	_, err := waitResult(t, seq)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	d.Unlock()

	next := d.Lock()
	_, err = waitResult(t, next)
	assert.NoError(t, err, "a later lock() must not be wedged by the abandoned sequence ticket")
}

// Scenario 7: reconnect after an unexpected close.
func TestScenarioReconnect(t *testing.T) {
	firstPort := newFakePort()
	secondPort := newFakePort()
	var attemptMu sync.Mutex
	attempt := 0

	d := NewDriver(Config{ReconnectInterval: 10 * time.Millisecond})
	t.Cleanup(func() { _ = d.Close() })
	d.conn.openPort = func(_ string, _ int, _ bool) (serialport.Port, error) {
		attemptMu.Lock()
		attempt++
		n := attempt
		attemptMu.Unlock()
		if n == 1 {
			return firstPort, nil
		}
		return secondPort, nil
	}

	var opens, closes int
	var mu sync.Mutex
	d.SetOnOpen(func() { mu.Lock(); opens++; mu.Unlock() })
	d.SetOnClose(func() { mu.Lock(); closes++; mu.Unlock() })

	require.NoError(t, d.Open("fake0"))

	between := d.Send([]byte{OpInfo.Byte()}, false)

	firstPort.failRead(errors.New("unplugged"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return closes >= 1 && opens >= 2
	}, time.Second, 5*time.Millisecond)

	_, err := waitResult(t, between)
	assert.ErrorIs(t, err, ErrDisconnected)
}
