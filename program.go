package sshtest

import "github.com/sshtest/server/internal/registry"

// Result is what a Handler returns to the dispatcher: text for each
// stream and the numeric exit status to report on the invoking channel.
type Result = registry.Result

// Stdout builds a Result carrying only a stdout message.
func Stdout(code uint32, msg string) Result { return registry.Stdout(code, msg) }

// StderrResult builds a Result carrying only a stderr message.
func StderrResult(code uint32, msg string) Result { return registry.StderrResult(code, msg) }

// Context is passed to every Handler invocation.
type Context = registry.Context

// Handler is a registered program. It runs synchronously on the channel
// task that invoked it; a long-running Handler blocks only that channel.
// A panic inside a Handler is recovered by the dispatcher and reported to
// the client as a generic failure, never as a Go stack trace.
type Handler = registry.Handler
