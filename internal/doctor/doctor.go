// Package doctor runs preflight checks before a server starts, so a
// misconfiguration surfaces as a short readable report instead of an
// opaque bind or handshake failure deep inside the protocol layer.
package doctor

import (
	"fmt"
	"net"

	"github.com/sshtest/server/internal/protocol"
	"github.com/sshtest/server/internal/util"
)

// Check is one diagnostic result.
type Check struct {
	Name string
	OK   bool
	Detail string
}

// Run executes every preflight check against the given bind address and
// port (port 0 means "OS-assigned") and returns their results in a fixed
// order regardless of pass/fail, so a report is stable across runs.
func Run(bindAddr string, port int) []Check {
	return []Check{
		checkPort(port),
		checkBind(bindAddr, port),
		checkHostKey(),
	}
}

// AllOK reports whether every check in checks passed.
func AllOK(checks []Check) bool {
	for _, c := range checks {
		if !c.OK {
			return false
		}
	}
	return true
}

func checkPort(port int) Check {
	if port == 0 {
		return Check{Name: "port range", OK: true, Detail: "OS-assigned"}
	}
	if err := util.ValidatePort(port); err != nil {
		return Check{Name: "port range", OK: false, Detail: err.Error()}
	}
	return Check{Name: "port range", OK: true}
}

func checkBind(bindAddr string, port int) Check {
	addr := fmt.Sprintf("%s:%d", util.NormalizeAddr(bindAddr, "127.0.0.1"), port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return Check{Name: "bind address", OK: false, Detail: err.Error()}
	}
	_ = l.Close()
	return Check{Name: "bind address", OK: true, Detail: addr}
}

func checkHostKey() Check {
	if _, err := protocol.GenerateHostKey(); err != nil {
		return Check{Name: "host key generation", OK: false, Detail: err.Error()}
	}
	return Check{Name: "host key generation", OK: true, Detail: "ed25519"}
}
