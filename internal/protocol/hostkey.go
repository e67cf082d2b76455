package protocol

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// GenerateHostKey produces a fresh Ed25519 host key. Each server run gets
// its own key; nothing is persisted to disk, since a test server has no
// identity to recognize across restarts.
func GenerateHostKey() (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ed25519 host key: %w", err)
	}
	signer, err := ssh.NewSignerFromSigner(priv)
	if err != nil {
		return nil, fmt.Errorf("wrapping ed25519 host key: %w", err)
	}
	return signer, nil
}
