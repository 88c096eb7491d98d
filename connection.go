package ryder

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chazkiker2/ryderserial-proto/internal/serialport"
)

// connection is the Connection Supervisor of spec.md §4.4: it owns the
// OS-level serial handle, the reader goroutine draining it, and the
// reconnect timer that fires after an unexpected close. It is the
// counterpart of the teacher's GXSerial open/reader/Close trio, adapted
// from one-shot media semantics to the auto-reconnecting semantics the
// wallet driver needs.
type connection struct {
	mu       sync.Mutex
	cfg      Config
	portName string
	port     serialport.Port
	closing  bool
	wg       sync.WaitGroup
	reconnT  *time.Timer
	// printer localizes the lifecycle/error trace strings logged through
	// cfg.Logger, the same message.Printer role the teacher's GXSerial
	// fills with its own language.Tag-selected printer.
	printer *message.Printer

	onData  func([]byte)
	onError func(error)
	onOpen  func()
	onClose func()

	// openPort is the seam serialport.Open is called through; tests in
	// this package substitute a fake so the reconnect loop can be
	// exercised without a real OS serial handle.
	openPort func(path string, baud int, exclusive bool) (serialport.Port, error)
}

func newConnection(cfg Config, onData func([]byte), onError func(error), onOpen func(), onClose func()) *connection {
	return &connection{
		cfg:      cfg,
		printer:  message.NewPrinter(language.AmericanEnglish),
		onData:   onData,
		onError:  onError,
		onOpen:   onOpen,
		onClose:  onClose,
		openPort: serialport.Open,
	}
}

// isOpen reports whether the underlying port handle is live.
func (c *connection) isOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port != nil
}

// open connects to portName. Per spec.md §4.4, calling open on an
// already-open port is a no-op — the port is not checked against a
// changed argument, matching the teacher's GXSerial.Open.
func (c *connection) open(portName string) error {
	c.mu.Lock()
	if c.port != nil {
		c.mu.Unlock()
		return nil
	}
	c.closing = false
	c.portName = portName
	c.mu.Unlock()

	return c.dial()
}

// dial performs the actual serialport.Open call and, on success, starts
// the reader goroutine. Safe to call again after a failed attempt.
func (c *connection) dial() error {
	port, err := c.openPort(c.portName, c.cfg.BaudRate, c.cfg.exclusiveLock())
	if err != nil {
		c.cfg.Logger.Warn().Err(err).Str("port", c.portName).
			Msg(c.printer.Sprintf("failed to open serial port %s", c.portName))
		return err
	}

	c.mu.Lock()
	c.port = port
	c.mu.Unlock()

	c.wg.Add(1)
	go c.reader()

	c.cfg.Logger.Info().Str("port", c.portName).
		Msg(c.printer.Sprintf("opened serial port %s", c.portName))
	if c.onOpen != nil {
		c.onOpen()
	}
	return nil
}

// write sends data over the open port.
func (c *connection) write(data []byte) (int, error) {
	c.mu.Lock()
	port := c.port
	c.mu.Unlock()
	if port == nil {
		return 0, errors.New("connection: port not open")
	}
	return port.Write(data)
}

// reader drains the port until it errors or close() is called, feeding
// every chunk to onData — the same loop shape as the teacher's
// GXSerial.reader, generalized to also trigger a reconnect attempt.
func (c *connection) reader() {
	defer c.wg.Done()
	buf := make([]byte, 512)
	for {
		c.mu.Lock()
		port := c.port
		c.mu.Unlock()
		if port == nil {
			return
		}

		n, err := port.Read(buf)
		if err != nil {
			c.mu.Lock()
			closing := c.closing
			c.port = nil
			c.mu.Unlock()
			_ = port.Close()
			if closing {
				c.cfg.Logger.Debug().Str("port", c.portName).
					Msg(c.printer.Sprintf("serial port reader stopped on close"))
			} else {
				c.cfg.Logger.Warn().Err(err).Str("port", c.portName).
					Msg(c.printer.Sprintf("serial port read failed on %s", c.portName))
				if c.onError != nil {
					c.onError(err)
				}
				if c.onClose != nil {
					c.onClose()
				}
				c.scheduleReconnect()
			}
			return
		}
		if n > 0 && c.onData != nil {
			c.onData(buf[:n])
		}
	}
}

// scheduleReconnect arms a one-shot timer that retries dial() after
// Config.ReconnectInterval, per spec.md §4.4's reconnect requirement.
func (c *connection) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return
	}
	c.cfg.Logger.Info().Str("port", c.portName).Dur("interval", c.cfg.ReconnectInterval).
		Msg(c.printer.Sprintf("scheduling reconnect to %s", c.portName))
	c.reconnT = time.AfterFunc(c.cfg.ReconnectInterval, func() {
		if err := c.dial(); err != nil {
			c.cfg.Logger.Warn().Err(err).Str("port", c.portName).
				Msg(c.printer.Sprintf("reconnect attempt to %s failed", c.portName))
			if c.onError != nil {
				c.onError(err)
			}
			c.scheduleReconnect()
		}
	})
}

// close tears down the connection and stops any pending reconnect.
// Idempotent.
func (c *connection) close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return nil
	}
	c.closing = true
	if c.reconnT != nil {
		c.reconnT.Stop()
		c.reconnT = nil
	}
	port := c.port
	c.port = nil
	c.mu.Unlock()

	var err error
	if port != nil {
		err = port.Close()
	}
	c.wg.Wait()
	c.cfg.Logger.Info().Str("port", c.portName).Msg(c.printer.Sprintf("closed serial port %s", c.portName))
	if c.onClose != nil {
		c.onClose()
	}
	return err
}
