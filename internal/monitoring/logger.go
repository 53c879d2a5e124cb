// Package monitoring holds the process-wide diagnostic logger. The TUI mutes
// it while it owns the terminal; headless runs leave it on log.Printf.
package monitoring

import (
	"fmt"
	"log"
	"sync"
)

var mu sync.RWMutex

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Call sites should go through it rather than log.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Mute silences Logf and returns a func restoring the previous logger.
func Mute() (restore func()) {
	mu.RLock()
	prev := Logf
	mu.RUnlock()
	SetLogger(nil)
	return func() { SetLogger(prev) }
}

// Component returns a logger that prefixes every line with "[name] ". It
// resolves Logf at call time so later SetLogger calls take effect.
func Component(name string) func(format string, v ...interface{}) {
	prefix := fmt.Sprintf("[%s] ", name)
	return func(format string, v ...interface{}) {
		mu.RLock()
		f := Logf
		mu.RUnlock()
		f(prefix+format, v...)
	}
}
