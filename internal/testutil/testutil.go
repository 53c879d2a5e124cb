// Package testutil provides shared test utilities and fixtures.
//
// Logging helpers swap the process-wide monitoring logger for the duration
// of one test and restore it on cleanup.
package testutil

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/pursuit/internal/monitoring"
)

// Logs collects formatted log lines. Safe for concurrent use, since
// runners and servers log from their own goroutines.
type Logs struct {
	mu    sync.Mutex
	lines []string
}

func (l *Logs) add(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

// Lines returns a copy of the captured lines.
func (l *Logs) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// Contains reports whether any captured line contains sub.
func (l *Logs) Contains(sub string) bool {
	for _, line := range l.Lines() {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

// CaptureLogs routes monitoring.Logf into the returned Logs until the test
// ends.
func CaptureLogs(t testing.TB) *Logs {
	t.Helper()
	logs := &Logs{}
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.SetLogger(original) })
	monitoring.SetLogger(logs.add)
	return logs
}

// MuteLogs silences monitoring.Logf until the test ends.
func MuteLogs(t testing.TB) {
	t.Helper()
	t.Cleanup(monitoring.Mute())
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d (%s), want %d (%s)", got, http.StatusText(got), want, http.StatusText(want))
	}
}
