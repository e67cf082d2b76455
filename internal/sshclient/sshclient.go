// Package sshclient drives a real system ssh(1) client against a server
// under a PTY, for the "demo" subcommand: a human-usable way to poke at a
// running server without hand-typing the connection command.
package sshclient

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// Options configures one interactive demo session. Password is printed to
// the controlling terminal before connecting, since ssh(1) itself prompts
// for the password interactively over the allocated PTY; the demo never
// handles the credential on the caller's behalf.
type Options struct {
	Host     string
	Port     int
	Login    string
	Password string
}

// Run execs the system ssh client against Host:Port under a pseudo-
// terminal, wiring the PTY to the calling process's stdin/stdout so a
// human can type into the session exactly as they would with a real
// terminal. It blocks until the ssh client exits.
func Run(opts Options) error {
	fmt.Fprintf(os.Stderr, "connecting as %s (password: %s)\n", opts.Login, opts.Password)
	fmt.Fprintln(os.Stderr, "type exit or press ctrl-c to end the session")

	cmd := exec.Command("ssh",
		// The demo server generates a fresh host key every run and has no
		// persistent identity to verify; disabling host-key checking here is
		// a UX convenience for a throwaway session, not general guidance.
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		"-l", opts.Login,
		"-p", strconv.Itoa(opts.Port),
		opts.Host,
	)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("starting ssh: %w", err)
	}
	defer ptmx.Close()

	sizeCh := make(chan os.Signal, 1)
	signal.Notify(sizeCh, syscall.SIGWINCH)
	go func() {
		for range sizeCh {
			_ = pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	sizeCh <- syscall.SIGWINCH // prime the initial size
	defer signal.Stop(sizeCh)

	if stdinFd := int(os.Stdin.Fd()); term.IsTerminal(stdinFd) {
		oldState, err := term.MakeRaw(stdinFd)
		if err == nil {
			defer term.Restore(stdinFd, oldState)
		}
	}

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptmx)

	return cmd.Wait()
}

// PromptPassword reads a password from the controlling terminal without
// echoing it, for use when a caller did not pass one on the command line.
func PromptPassword(login string) (string, error) {
	fmt.Fprintf(os.Stderr, "password for %s: ", login)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
