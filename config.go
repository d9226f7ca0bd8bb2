// constants, thresholds, and environment overrides.
//
// pmon takes no flags and reads no config file. the only knobs are
// environment variables, checked once at startup.

package main

import (
	"os"
	"time"
)

const (
	refreshInterval = 500 * time.Millisecond
	minInterval     = 50 * time.Millisecond

	debugLogPath = "pmon-debug.log"
)

// threshold bands, in percent. usage above highThreshold is high,
// above mediumThreshold is medium, everything else is low.
const (
	highThreshold   = 70.0
	mediumThreshold = 30.0
)

// frame layout
const (
	headerRows = 2
	nameWidth  = 20 // "%-20s" in the classic console monitors
	valueWidth = 10 // "1023.9 MiB" fits
	colSep     = " | "
	headerText = "Process Monitor [Tab: Cycle]"
)

// intervalFromEnv returns the tick period, honoring PMON_INTERVAL when
// it parses as a duration of at least minInterval.
func intervalFromEnv() time.Duration {
	raw := os.Getenv("PMON_INTERVAL")
	if raw == "" {
		return refreshInterval
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < minInterval {
		return refreshInterval
	}
	return d
}

// debugEnabled reports whether the debug log should be written.
func debugEnabled() bool {
	return os.Getenv("PMON_DEBUG") != "" || os.Getenv("DEBUG") != ""
}

// availableRows is the number of process rows that fit under the header.
// one row is held back so the trailing newline never scrolls the terminal.
func availableRows(height int) int {
	return max(0, height-headerRows-1)
}
