// Package debug provides gated diagnostic logging for cleaning runs. Output
// is off unless the caller passes enabled=true (wired from the DEBUG env
// var), so production runs stay quiet while operators can trace a run
// phase by phase.
package debug

import (
	"fmt"
	"log"
	"time"
)

// Output logs a formatted message when debugging is enabled.
func Output(enabled bool, format string, args ...interface{}) {
	if !enabled {
		return
	}
	log.Printf("[%s] %s", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}

// Phase marks the start of a named pipeline phase and returns a func that
// logs its duration. Usage: defer debug.Phase(enabled, "copy")().
func Phase(enabled bool, name string) func() {
	if !enabled {
		return func() {}
	}
	start := time.Now()
	Output(enabled, "phase %s: start", name)
	return func() {
		Output(enabled, "phase %s: done in %v", name, time.Since(start))
	}
}
