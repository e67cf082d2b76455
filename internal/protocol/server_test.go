package protocol

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/sshtest/server/internal/connmanager"
	"github.com/sshtest/server/internal/directory"
	"github.com/sshtest/server/internal/registry"
)

func startTestServer(t *testing.T) (addr string, dir *directory.Directory, manager *connmanager.Manager, stop func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	hostKey, err := GenerateHostKey()
	if err != nil {
		t.Fatalf("GenerateHostKey: %v", err)
	}
	dir = directory.NewDirectory()
	dir.Insert(directory.New("user1", "pass123"))
	reg := registry.NewBuilder().
		Add("whoami", func(ctx *registry.Context, program string, args []string) registry.Result {
			return registry.Stdout(0, ctx.CurrentUser)
		}).
		Build()
	manager = connmanager.New()

	srv := New(listener, hostKey, dir, reg, manager, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()

	return listener.Addr().String(), dir, manager, func() {
		cancel()
		_ = srv.Close()
		<-done
	}
}

func dialClient(t *testing.T, addr, login, password string) *ssh.Client {
	t.Helper()
	cfg := &ssh.ClientConfig{
		User:            login,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         2 * time.Second,
	}
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return client
}

func TestPasswordAuthSucceedsAndFails(t *testing.T) {
	addr, _, _, stop := startTestServer(t)
	defer stop()

	client := dialClient(t, addr, "user1", "pass123")
	client.Close()

	cfg := &ssh.ClientConfig{
		User:            "user1",
		Auth:            []ssh.AuthMethod{ssh.Password("wrong")},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         2 * time.Second,
	}
	if _, err := ssh.Dial("tcp", addr, cfg); err == nil {
		t.Fatal("expected wrong password to be rejected")
	}
}

func TestExecRunsRegisteredProgramAndReportsExitStatus(t *testing.T) {
	addr, _, _, stop := startTestServer(t)
	defer stop()

	client := dialClient(t, addr, "user1", "pass123")
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()

	out, err := session.Output("whoami")
	if err != nil || string(out) != "user1\r\n" {
		t.Fatalf("unexpected output %q (err=%v)", out, err)
	}
}

func TestExecUnknownCommandReturnsExit127(t *testing.T) {
	addr, _, _, stop := startTestServer(t)
	defer stop()

	client := dialClient(t, addr, "user1", "pass123")
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()

	err = session.Run("does-not-exist")
	exitErr, ok := err.(*ssh.ExitError)
	if !ok {
		t.Fatalf("expected *ssh.ExitError, got %v (%T)", err, err)
	}
	if exitErr.ExitStatus() != 127 {
		t.Fatalf("expected exit status 127, got %d", exitErr.ExitStatus())
	}
}

func TestChangePasswordThenReauthenticate(t *testing.T) {
	addr, dir, _, stop := startTestServer(t)
	defer stop()

	client := dialClient(t, addr, "user1", "pass123")
	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := session.Run("change_password newpass"); err != nil {
		t.Fatalf("change_password: %v", err)
	}
	session.Close()
	client.Close()

	if !dir.CheckPassword("user1", "newpass") {
		t.Fatal("expected directory to reflect new password")
	}

	newClient := dialClient(t, addr, "user1", "newpass")
	newClient.Close()
}

func TestInteractiveSessionEchoesAndReprompts(t *testing.T) {
	addr, _, _, stop := startTestServer(t)
	defer stop()

	client := dialClient(t, addr, "user1", "pass123")
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()

	if err := session.RequestPty("xterm", 40, 80, ssh.TerminalModes{}); err != nil {
		t.Fatalf("RequestPty: %v", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		t.Fatalf("StdinPipe: %v", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		t.Fatalf("StdoutPipe: %v", err)
	}
	if err := session.Shell(); err != nil {
		t.Fatalf("Shell: %v", err)
	}

	readN(t, stdout, len("$ "))
	if _, err := stdin.Write([]byte("echo hi\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	want := "echo hi\r\nhi\r\n$ "
	got := readN(t, stdout, len(want))
	if got != want {
		t.Fatalf("unexpected stream after echo hi: %q", got)
	}
}

func TestCtrlCClosesChannelWithStatus130(t *testing.T) {
	addr, _, _, stop := startTestServer(t)
	defer stop()

	client := dialClient(t, addr, "user1", "pass123")
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		t.Fatalf("StdinPipe: %v", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		t.Fatalf("StdoutPipe: %v", err)
	}
	if err := session.Shell(); err != nil {
		t.Fatalf("Shell: %v", err)
	}
	readN(t, stdout, len("$ "))

	if _, err := stdin.Write([]byte{0x03}); err != nil {
		t.Fatalf("write: %v", err)
	}

	err = session.Wait()
	exitErr, ok := err.(*ssh.ExitError)
	if !ok {
		t.Fatalf("expected *ssh.ExitError, got %v (%T)", err, err)
	}
	if exitErr.ExitStatus() != 130 {
		t.Fatalf("expected exit status 130, got %d", exitErr.ExitStatus())
	}
}

func readN(t *testing.T, r io.Reader, n int) string {
	t.Helper()
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("readN(%d): %v", n, err)
	}
	return string(buf)
}

func TestDirectTCPIPChannelIsRefused(t *testing.T) {
	addr, _, _, stop := startTestServer(t)
	defer stop()

	client := dialClient(t, addr, "user1", "pass123")
	defer client.Close()

	_, err := client.Dial("tcp", "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected direct-tcpip channel to be refused")
	}
}
