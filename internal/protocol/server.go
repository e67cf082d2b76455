// Package protocol implements the SSH-2 wire-level server: connection
// acceptance, password authentication, and per-channel session handling.
// It has no knowledge of the public Builder/Server API; it is driven by a
// directory.Directory and a registry.Registry handed to it at
// construction.
package protocol

import (
	"context"
	"log/slog"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/sshtest/server/internal/connmanager"
	"github.com/sshtest/server/internal/directory"
	"github.com/sshtest/server/internal/eventlog"
	"github.com/sshtest/server/internal/registry"
)

// Server accepts TCP connections on a single listener and speaks SSH-2 on
// each one, dispatching shell and exec requests through a registry.
type Server struct {
	listener net.Listener
	config   *ssh.ServerConfig
	dir      *directory.Directory
	reg      *registry.Registry
	manager  *connmanager.Manager
	events   *eventlog.Log
	log      *slog.Logger
}

// New wires a Server around an already-bound listener. events may be nil,
// in which case no audit trail is written.
func New(listener net.Listener, hostKey ssh.Signer, dir *directory.Directory, reg *registry.Registry, manager *connmanager.Manager, events *eventlog.Log, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		listener: listener,
		config:   NewServerConfig(dir, hostKey),
		dir:      dir,
		reg:      reg,
		manager:  manager,
		events:   events,
		log:      log,
	}
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until ctx is canceled or the listener is
// closed. It always returns a non-nil error; a canceled ctx surfaces as
// ctx.Err(), not as an accept error, so callers do not need to inspect
// net error strings to tell a deliberate shutdown from a real failure.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		id := s.manager.Register(conn.RemoteAddr().String(), time.Now(), func() { _ = conn.Close() })
		go s.handleConn(id, conn)
	}
}

// Close closes the listener and every currently open connection.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.manager.CloseAll()
	return err
}

func (s *Server) handleConn(id uint64, conn net.Conn) {
	s.events.Record(eventlog.Event{Time: time.Now(), Kind: eventlog.KindConnectionAccepted, RemoteAddr: conn.RemoteAddr().String()})

	sshConn, chans, globalReqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		s.log.Debug("ssh handshake failed", "remote", conn.RemoteAddr(), "error", err)
		s.events.Record(eventlog.Event{Time: time.Now(), Kind: eventlog.KindAuthFailed, RemoteAddr: conn.RemoteAddr().String(), Detail: err.Error()})
		s.manager.Remove(id)
		_ = conn.Close()
		return
	}
	defer func() {
		s.manager.Remove(id)
		_ = sshConn.Close()
	}()

	login := sshConn.User()
	s.manager.Authenticated(id, login)
	s.events.Record(eventlog.Event{Time: time.Now(), Kind: eventlog.KindAuthSucceeded, RemoteAddr: conn.RemoteAddr().String(), Login: login})
	s.log.Info("ssh connection authenticated", "remote", conn.RemoteAddr(), "login", login)

	go ssh.DiscardRequests(globalReqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			s.log.Debug("failed to accept channel", "error", err)
			continue
		}
		go s.handleSession(login, channel, requests)
	}

	s.events.Record(eventlog.Event{Time: time.Now(), Kind: eventlog.KindConnectionClosed, RemoteAddr: conn.RemoteAddr().String(), Login: login})
}
