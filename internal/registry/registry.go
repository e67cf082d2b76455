// Package registry holds the immutable-after-build command-name -> handler
// mapping consulted by the dispatcher before it falls back to built-ins.
package registry

import "github.com/sshtest/server/internal/directory"

// Result is what a Handler returns: the text to write to stdout/stderr and
// the numeric exit status to report on the invoking channel. Either stream
// may be empty.
type Result struct {
	Stdout     string
	Stderr     string
	StatusCode uint32
}

// Stdout builds a Result carrying only a stdout message.
func Stdout(code uint32, msg string) Result {
	return Result{Stdout: msg, StatusCode: code}
}

// StderrResult builds a Result carrying only a stderr message.
func StderrResult(code uint32, msg string) Result {
	return Result{Stderr: msg, StatusCode: code}
}

// Context is passed to every Handler invocation. It exposes the shared user
// directory and the login of the user who issued the command.
type Context struct {
	Directory   *directory.Directory
	CurrentUser string
}

// CurrentUserIsAdmin reports whether the invoking user has the admin flag
// set. The directory does not enforce this; it is advisory for handlers
// that want to gate behavior on it.
func (c *Context) CurrentUserIsAdmin() bool {
	return c.Directory.IsAdmin(c.CurrentUser)
}

// Handler is a registered program. It must be synchronous and return a
// complete Result; a long-running handler blocks only the channel task
// that invoked it, never the rest of the server.
type Handler func(ctx *Context, program string, args []string) Result

// Registry is an immutable-after-build command-name -> Handler mapping.
// It is safe for concurrent read access from every connection without a
// lock because nothing mutates it after Build returns.
type Registry struct {
	handlers map[string]Handler
}

// Builder accumulates Handler registrations before Build freezes them.
type Builder struct {
	handlers map[string]Handler
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{handlers: make(map[string]Handler)}
}

// Add registers name to call handler. A later Add with the same name
// replaces the earlier registration.
func (b *Builder) Add(name string, handler Handler) *Builder {
	b.handlers[name] = handler
	return b
}

// Build freezes the accumulated registrations into a Registry.
func (b *Builder) Build() *Registry {
	frozen := make(map[string]Handler, len(b.handlers))
	for name, h := range b.handlers {
		frozen[name] = h
	}
	return &Registry{handlers: frozen}
}

// Lookup returns the handler registered for name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}
