package sshtest

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/ssh"

	"github.com/sshtest/server/internal/connmanager"
	"github.com/sshtest/server/internal/directory"
	"github.com/sshtest/server/internal/eventlog"
	"github.com/sshtest/server/internal/protocol"
)

// ConnectionSnapshot is a point-in-time view of one connection a Server is
// or was tracking, returned by Server.Connections.
type ConnectionSnapshot = connmanager.Snapshot

// Server is a running, in-process SSH server. It is created by
// Builder.Run and stopped by Close.
type Server struct {
	internal *protocol.Server
	dir      *directory.Directory
	manager  *connmanager.Manager
	events   *eventlog.Log
	host     string
	port     int
	hostKey  ssh.Signer
	cancel   func()
	done     chan struct{}
}

// Host returns the interface the server is bound to.
func (s *Server) Host() string { return s.host }

// Port returns the TCP port the server is bound to.
func (s *Server) Port() int { return s.port }

// Addr returns "host:port".
func (s *Server) Addr() string { return fmt.Sprintf("%s:%d", s.host, s.port) }

// ServerPublicKey returns the host key's algorithm name and base64-encoded
// key body, e.g. "ssh-ed25519 AAAAC3N...".
func (s *Server) ServerPublicKey() string {
	pub := s.hostKey.PublicKey()
	return pub.Type() + " " + base64.StdEncoding.EncodeToString(pub.Marshal())
}

// Users returns the shared user directory backing this server, letting a
// test read or mutate credentials while the server is running.
func (s *Server) Users() *directory.Directory { return s.dir }

// Connections returns a snapshot of every connection currently tracked by
// the server, from freshly accepted-but-unauthenticated sockets through
// open, authenticated sessions.
func (s *Server) Connections() []ConnectionSnapshot {
	return s.manager.Snapshot()
}

// Close stops the accept loop, closes every tracked connection, and
// releases the event log if one was configured. It blocks until the
// accept loop has exited.
func (s *Server) Close() error {
	s.cancel()
	err := s.internal.Close()
	<-s.done
	if closeErr := s.events.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
