package main

import (
	"os"

	"github.com/rs/zerolog"

	ryder "github.com/chazkiker2/ryderserial-proto"
)

// newDriver builds a Driver configured from the CLI's persistent flags and
// wires its event callbacks to stderr logging, so every subcommand prints
// connection/lock/failure events the same way.
func newDriver() *ryder.Driver {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.TraceLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Str("component", "ryderctl").Logger()

	cfg := ryder.Config{Debug: debug}.WithLogger(logger)
	d := ryder.NewDriver(cfg)

	d.SetOnOpen(func() { logger.Info().Msg("port opened") })
	d.SetOnClose(func() { logger.Warn().Msg("port closed") })
	d.SetOnError(func(err error) { logger.Error().Err(err).Msg("driver error") })
	d.SetOnFailed(func(err error) { logger.Warn().Err(err).Msg("command failed") })
	d.SetOnLocked(func() { logger.Warn().Msg("device reports LOCKED") })
	d.SetOnWaitUserConfirm(func() { logger.Info().Msg("waiting on user confirmation") })
	return d
}
