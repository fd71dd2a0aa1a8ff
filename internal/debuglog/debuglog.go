// Package debuglog is the append-only troubleshooting sink behind the
// runtime "debug log" toggle. Writes are best-effort: the first failed write
// disables the logger for the rest of the session.
package debuglog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

type Logger struct {
	mu       sync.Mutex
	path     string
	enabled  bool
	wroteHdr bool
	broken   bool
}

func New(path string) *Logger {
	return &Logger{path: path}
}

// SetEnabled flips the runtime toggle. A logger that failed a write stays
// disabled even when re-enabled by the user.
func (l *Logger) SetEnabled(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = on && !l.broken
}

func (l *Logger) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Broken reports whether a write error permanently disabled the sink.
func (l *Logger) Broken() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.broken
}

// Logf appends one timestamped line. Safe to call from any goroutine.
func (l *Logger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		l.disable()
		return
	}
	defer f.Close()

	if !l.wroteHdr {
		header := fmt.Sprintf("mkjxl debug log\n\nSession started: %s\n\n", time.Now().Format(time.RFC3339))
		if _, err := f.WriteString(header); err != nil {
			l.disable()
			return
		}
		l.wroteHdr = true
	}

	line := fmt.Sprintf("[%s] %s\n", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
	if _, err := f.WriteString(line); err != nil {
		l.disable()
	}
}

func (l *Logger) disable() {
	l.enabled = false
	l.broken = true
}
