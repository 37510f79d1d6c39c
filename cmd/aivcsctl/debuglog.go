package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// debugLog is a terse stderr logger for -verbose request tracing. The CLI
// keeps it separate from aivcsd's structured logrus logger: a one-shot
// command-line tool wants compact, colorized lines a human reads directly,
// not JSON meant for a log aggregator.
var debugLog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
	With().Timestamp().Logger().
	Level(zerolog.Disabled)

func enableVerboseLogging() {
	debugLog = debugLog.Level(zerolog.DebugLevel)
}
