// Package security separates user-safe error text from debug detail so that
// a misbehaving custom command handler cannot leak local filesystem paths
// or Go runtime internals to a connected SSH client.
package security

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ClassifiedError separates a client-safe message from verbose debug detail.
type ClassifiedError struct {
	UserSafe    string
	DebugDetail string
}

func (e *ClassifiedError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.UserSafe) == "" {
		return "operation failed"
	}
	return e.UserSafe
}

// NewClassifiedError creates an error with separated client-safe and debug details.
func NewClassifiedError(userSafe, debugDetail string) error {
	return &ClassifiedError{UserSafe: userSafe, DebugDetail: debugDetail}
}

// UserMessage returns text safe to write back over an SSH channel.
func UserMessage(err error, redact bool) string {
	if err == nil {
		return ""
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		msg := ce.UserSafe
		if msg == "" {
			msg = "operation failed"
		}
		if redact {
			return RedactMessage(msg)
		}
		return msg
	}
	if redact {
		return RedactMessage(err.Error())
	}
	return err.Error()
}

// DebugMessage returns detailed error text for server-side logs.
func DebugMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		if strings.TrimSpace(ce.DebugDetail) != "" {
			return ce.DebugDetail
		}
	}
	return err.Error()
}

// RedactMessage strips common sensitive path prefixes from client-visible text.
func RedactMessage(msg string) string {
	if msg == "" {
		return msg
	}
	out := msg
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		out = strings.ReplaceAll(out, home, "~")
	}
	if idx := strings.Index(out, "/.ssh/"); idx >= 0 {
		out = strings.ReplaceAll(out, "/.ssh/", "/.ssh/[redacted]/")
	}
	return out
}

// PanicMessage classifies a recovered panic value, returning a generic,
// redacted message safe to send to the client as userMsg and the full
// detail (which may embed a local path or other handler state) as debugMsg
// for the caller's own logs. recovered is never forwarded to the client
// as-is.
func PanicMessage(program string, recovered any) (userMsg, debugMsg string) {
	err := NewClassifiedError(
		fmt.Sprintf("%s: handler panicked", program),
		fmt.Sprintf("%s: panic: %v", program, recovered),
	)
	return UserMessage(err, true), DebugMessage(err)
}
