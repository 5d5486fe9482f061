package spawn

import (
	"bytes"
	"sync"

	"pkt.systems/pslog"
)

// maxLine caps a buffered stderr line; longer output is logged in pieces.
const maxLine = 4096

// lineLogger is an io.Writer that logs each complete line at warn.
type lineLogger struct {
	mu  sync.Mutex
	log pslog.Logger
	buf []byte
}

func newLineLogger(log pslog.Logger) *lineLogger {
	return &lineLogger{log: log}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		l.emit(l.buf[:i])
		l.buf = l.buf[i+1:]
	}
	for len(l.buf) >= maxLine {
		l.emit(l.buf[:maxLine])
		l.buf = l.buf[maxLine:]
	}
	if len(l.buf) == 0 {
		l.buf = nil
	}
	return len(p), nil
}

// Flush logs a trailing partial line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buf) > 0 {
		l.emit(l.buf)
		l.buf = nil
	}
}

func (l *lineLogger) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	l.log.Warn("engine", "line", string(line))
}
