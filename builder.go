package sshtest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"

	"github.com/sshtest/server/internal/connmanager"
	"github.com/sshtest/server/internal/directory"
	"github.com/sshtest/server/internal/eventlog"
	"github.com/sshtest/server/internal/protocol"
	"github.com/sshtest/server/internal/registry"
	"github.com/sshtest/server/internal/util"
)

const (
	defaultBindAddr   = "127.0.0.1"
	fallbackPortLow   = 15000
	fallbackPortHigh  = 55000
	fallbackAttempts  = 5
)

// Builder configures a Server before it starts listening. Create one with
// NewBuilder; the zero value has no program registry and is not ready to
// use. Every option left unset has a documented default.
type Builder struct {
	bindAddr     string
	port         int
	users        []User
	regBuilder   *registry.Builder
	eventLogPath string
	logger       *slog.Logger
}

// NewBuilder creates a Builder with no users and no registered programs.
func NewBuilder() *Builder {
	return &Builder{regBuilder: registry.NewBuilder()}
}

// BindAddr sets the interface to listen on. Default: 127.0.0.1.
func (b *Builder) BindAddr(addr string) *Builder {
	b.bindAddr = addr
	return b
}

// Port sets the TCP port to bind. Default: an OS-assigned free port,
// falling back to a pseudo-random port in [15000, 55000) if that fails.
func (b *Builder) Port(port int) *Builder {
	b.port = port
	return b
}

// AddUser seeds one user into the server's directory.
func (b *Builder) AddUser(u User) *Builder {
	b.users = append(b.users, u)
	return b
}

// AddUsers seeds multiple users into the server's directory.
func (b *Builder) AddUsers(users ...User) *Builder {
	b.users = append(b.users, users...)
	return b
}

// AddProgram registers name to be handled by handler. A later AddProgram
// call for the same name replaces the earlier registration; a registered
// program always takes precedence over a built-in of the same name.
func (b *Builder) AddProgram(name string, handler Handler) *Builder {
	b.regBuilder.Add(name, handler)
	return b
}

// EventLogPath opts into writing a JSON-lines audit trail of connection,
// authentication, and command activity to path. Unset by default, which
// disables audit logging entirely.
func (b *Builder) EventLogPath(path string) *Builder {
	b.eventLogPath = path
	return b
}

// Logger sets the structured logger the server reports connection
// activity to. Defaults to slog.Default().
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Run binds the listener, generates a fresh host key, and starts accepting
// connections in the background. The returned Server stops accepting once
// ctx is canceled or Server.Close is called.
func (b *Builder) Run(ctx context.Context) (*Server, error) {
	host := util.NormalizeAddr(b.bindAddr, defaultBindAddr)

	listener, boundPort, err := bindListener(host, b.port)
	if err != nil {
		return nil, fmt.Errorf("binding ssh listener: %w", err)
	}

	hostKey, err := protocol.GenerateHostKey()
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("generating host key: %w", err)
	}

	dir := directory.NewDirectory()
	for _, u := range b.users {
		dir.Insert(u.toInternal())
	}
	reg := b.regBuilder.Build()
	manager := connmanager.New()

	var events *eventlog.Log
	if b.eventLogPath != "" {
		events, err = eventlog.Open(b.eventLogPath)
		if err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("opening event log: %w", err)
		}
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := protocol.New(listener, hostKey, dir, reg, manager, events, logger)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(runCtx); err != nil && runCtx.Err() == nil {
			logger.Error("ssh server stopped unexpectedly", "error", err)
		}
	}()

	return &Server{
		internal: srv,
		dir:      dir,
		manager:  manager,
		events:   events,
		host:     host,
		port:     boundPort,
		hostKey:  hostKey,
		cancel:   cancel,
		done:     done,
	}, nil
}

// bindListener honors an explicit non-zero port; for port 0 it asks the OS
// for a free port, and if that fails falls back to a pseudo-random guess
// in [15000, 55000), matching the fallback the reference builder documents
// for environments where ephemeral-port allocation is unavailable.
func bindListener(host string, port int) (net.Listener, int, error) {
	if port != 0 {
		if err := util.ValidatePort(port); err != nil {
			return nil, 0, err
		}
		l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
		if err != nil {
			return nil, 0, err
		}
		return l, portOf(l), nil
	}

	if l, err := net.Listen("tcp", fmt.Sprintf("%s:0", host)); err == nil {
		return l, portOf(l), nil
	}

	var lastErr error
	for i := 0; i < fallbackAttempts; i++ {
		candidate := fallbackPortLow + rand.Intn(fallbackPortHigh-fallbackPortLow)
		l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, candidate))
		if err == nil {
			return l, candidate, nil
		}
		lastErr = err
	}
	return nil, 0, fmt.Errorf("no free port found in [%d, %d): %w", fallbackPortLow, fallbackPortHigh, lastErr)
}

func portOf(l net.Listener) int {
	return l.Addr().(*net.TCPAddr).Port
}
