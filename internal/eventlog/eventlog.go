// Package eventlog appends a JSON-lines audit trail of connection and
// authentication activity when a server is configured with a log path. It
// is opt-in: a nil *Log is a valid, inert sink.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Kind identifies the category of a recorded Event.
type Kind string

const (
	KindConnectionAccepted Kind = "connection_accepted"
	KindAuthSucceeded      Kind = "auth_succeeded"
	KindAuthFailed         Kind = "auth_failed"
	KindCommand            Kind = "command"
	KindConnectionClosed   Kind = "connection_closed"
)

// Event is one line of the audit trail.
type Event struct {
	Time       time.Time `json:"time"`
	Kind       Kind      `json:"kind"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Login      string    `json:"login,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Log appends Events to a file as newline-delimited JSON. Writes are
// serialized by a mutex so concurrent connections can share one Log
// without interleaving partial lines.
type Log struct {
	mu   sync.Mutex
	file *os.File
}

// Open creates or appends to the file at path. The caller must call Close
// when the server shuts down.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log %q: %w", path, err)
	}
	return &Log{file: f}, nil
}

// Record appends ev as one JSON line. A nil receiver is a documented no-op
// so callers do not need to branch on whether logging is enabled.
func (l *Log) Record(ev Event) {
	if l == nil {
		return
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.file.Write(line)
}

// Close flushes and closes the underlying file. A nil receiver is a no-op.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
