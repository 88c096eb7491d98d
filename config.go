package ryder

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Default values for Config (spec.md §3).
const (
	DefaultBaudRate          = 115200
	DefaultReconnectInterval = 1000 * time.Millisecond
	defaultWatchdogDuration  = 5000 * time.Millisecond
)

// Config configures a Driver at construction. All fields are optional; the
// zero value is filled in with the spec.md §3 defaults by NewDriver.
type Config struct {
	// BaudRate defaults to 115200.
	BaudRate int
	// ExclusiveLock requests the OS-level exclusive port lock. Defaults
	// to true.
	ExclusiveLock *bool
	// ReconnectInterval is how often the supervisor retries an open()
	// after an unexpected close. Defaults to 1000ms.
	ReconnectInterval time.Duration
	// RejectOnLocked selects the LOCKED policy of spec.md §4.2: when
	// true, a LOCKED byte fails every queued entry; when false (default)
	// it is reported via the `locked` event and scanning continues.
	RejectOnLocked bool
	// Debug, when true, with neither Logger nor LogLevel set, implies
	// maximum verbosity (spec.md §3).
	Debug bool
	// LogLevel overrides the level the default Logger is built at,
	// independent of Debug (spec.md §3: "debug=true and unset log_level
	// imply maximum verbosity" — an explicit LogLevel wins over Debug).
	// Ignored once a Logger is supplied via WithLogger.
	LogLevel *zerolog.Level
	// CorrelationIDs, when true (the default), tags log lines about a
	// command entry with its uuid so a caller can grep one command's
	// lifecycle out of a busy log stream.
	CorrelationIDs *bool
	// Logger receives structured log output. Defaults to a zerolog
	// logger writing to stderr, leveled from LogLevel or else Debug.
	Logger zerolog.Logger
	// loggerSet distinguishes "caller supplied a logger" from the zero
	// value so NewDriver only applies the Debug-derived default once.
	loggerSet bool
	// watchdogDuration is fixed at 5000ms by spec.md §4.2 and is not part
	// of the public Config surface; it exists as a field rather than a
	// bare constant only so tests in this package can shrink it instead
	// of sleeping for five real seconds.
	watchdogDuration time.Duration
}

// WithLogger returns a copy of cfg using logger for all driver output.
func (cfg Config) WithLogger(logger zerolog.Logger) Config {
	cfg.Logger = logger
	cfg.loggerSet = true
	return cfg
}

func (cfg Config) normalize() Config {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ExclusiveLock == nil {
		v := true
		cfg.ExclusiveLock = &v
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.watchdogDuration == 0 {
		cfg.watchdogDuration = defaultWatchdogDuration
	}
	if cfg.CorrelationIDs == nil {
		v := true
		cfg.CorrelationIDs = &v
	}
	if !cfg.loggerSet {
		level := zerolog.InfoLevel
		if cfg.Debug {
			level = zerolog.TraceLevel
		}
		if cfg.LogLevel != nil {
			level = *cfg.LogLevel
		}
		cfg.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Str("component", "ryder").Logger()
	}
	return cfg
}

func (cfg Config) exclusiveLock() bool {
	return cfg.ExclusiveLock == nil || *cfg.ExclusiveLock
}

func (cfg Config) correlationIDs() bool {
	return cfg.CorrelationIDs == nil || *cfg.CorrelationIDs
}
