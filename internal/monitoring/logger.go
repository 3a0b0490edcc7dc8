// Package monitoring holds the diagnostic logger shared by the pipeline
// packages. The CLI logs through the standard log package directly.
package monitoring

import (
	"fmt"
	"log"
)

// Logf receives row-level and target-level diagnostics (skipped rows,
// rejected tiles, skipped targets). It defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Passing nil mutes diagnostics.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture installs a logger that appends formatted lines to dst and returns
// a function restoring the previous logger. Used by tests that assert on
// diagnostics.
func Capture(dst *[]string) (restore func()) {
	prev := Logf
	Logf = func(format string, v ...interface{}) {
		*dst = append(*dst, fmt.Sprintf(format, v...))
	}
	return func() { Logf = prev }
}
