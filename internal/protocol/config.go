package protocol

import (
	"fmt"

	"golang.org/x/crypto/ssh"

	"github.com/sshtest/server/internal/directory"
)

// NewServerConfig builds the ssh.ServerConfig advertising password as the
// only supported authentication method. golang.org/x/crypto/ssh does not
// impose any artificial delay before replying to an auth attempt, so
// PasswordCallback returning promptly is sufficient to satisfy a
// zero-rejection-delay requirement; no explicit sleep or throttle is
// introduced here.
func NewServerConfig(dir *directory.Directory, hostKey ssh.Signer) *ssh.ServerConfig {
	cfg := &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if dir.CheckPassword(conn.User(), string(password)) {
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("password rejected for %q", conn.User())
		},
	}
	cfg.AddHostKey(hostKey)
	return cfg
}
