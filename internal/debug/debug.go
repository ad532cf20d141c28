// Package debug provides env-gated diagnostic logging for raas.
//
// Output goes to stderr and is enabled by setting RAAS_DEBUG to any
// non-empty value, or at runtime via SetVerbose.
package debug

import (
	"fmt"
	"os"
)

var (
	enabled     = os.Getenv("RAAS_DEBUG") != ""
	verboseMode = false
	quietMode   = false
)

// Enabled reports whether debug logging is active.
func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output).
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled.
func IsQuiet() bool {
	return quietMode
}

// Logf writes a debug line to stderr when debug logging is active.
func Logf(format string, args ...interface{}) {
	if Enabled() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// Warnf always writes a warning line to stderr. Used for conditions that
// are tolerated but should be visible, like a skipped matrix override entry.
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// PrintNormal prints output unless quiet mode is enabled.
func PrintNormal(format string, args ...interface{}) {
	if !IsQuiet() {
		fmt.Printf(format, args...)
	}
}
