// Package dispatch turns one line of shell-like input received on an SSH
// channel into an Outcome, applying POSIX word-splitting and the
// built-in programs every server instance provides regardless of what a
// caller registers.
package dispatch

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/shlex"

	"github.com/sshtest/server/internal/directory"
	"github.com/sshtest/server/internal/registry"
	"github.com/sshtest/server/internal/security"
)

// Outcome is what a dispatched line produces: text for each stream, the
// status code to report on the channel, and whether the channel should be
// closed after the text is written (set by the exit built-in).
type Outcome struct {
	Stdout     string
	Stderr     string
	StatusCode uint32
	Exit       bool
}

// Dispatch decodes line as UTF-8 (replacing invalid sequences), splits it
// into words the way a POSIX shell would, and runs the resulting command.
//
// A registered program takes precedence over every built-in, including
// exit and change_password: a caller can shadow either by registering a
// program under the same name. An empty line, or a line that splits into
// zero words, is a no-op and produces a zero Outcome.
func Dispatch(reg *registry.Registry, dir *directory.Directory, currentUser, line string) Outcome {
	if !utf8.ValidString(line) {
		line = strings.ToValidUTF8(line, "�")
	}

	words, err := shlex.Split(line)
	if err != nil {
		// Unterminated quote or similar: fall back to whitespace
		// splitting rather than dropping the line on the floor.
		words = strings.Fields(line)
	}
	if len(words) == 0 {
		return Outcome{}
	}

	program, args := words[0], words[1:]
	if program == "" {
		return Outcome{}
	}

	ctx := &registry.Context{Directory: dir, CurrentUser: currentUser}

	if h, ok := reg.Lookup(program); ok {
		return runHandler(h, ctx, program, args)
	}

	switch program {
	case "echo":
		return Outcome{Stdout: strings.Join(args, "")}
	case "change_password":
		return changePassword(dir, currentUser, args)
	case "exit":
		return Outcome{StatusCode: 0, Exit: true}
	default:
		return Outcome{Stderr: program + ": command not found", StatusCode: 127}
	}
}

func runHandler(h registry.Handler, ctx *registry.Context, program string, args []string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			userMsg, debugMsg := security.PanicMessage(program, r)
			slog.Default().Error("handler panicked", "program", program, "detail", debugMsg)
			out = Outcome{Stderr: userMsg, StatusCode: 1}
		}
	}()
	res := h(ctx, program, args)
	return Outcome{Stdout: res.Stdout, Stderr: res.Stderr, StatusCode: res.StatusCode}
}

func changePassword(dir *directory.Directory, currentUser string, args []string) Outcome {
	if len(args) == 0 {
		return Outcome{Stdout: "no password Usage: change_password <new_password>", StatusCode: 1}
	}
	dir.SetPassword(currentUser, args[0])
	return Outcome{Stdout: "password changed", StatusCode: 0}
}
