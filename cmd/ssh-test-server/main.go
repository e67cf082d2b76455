// Command ssh-test-server runs a standalone instance of the embeddable SSH
// test server for manual poking: starting it under a real terminal,
// watching its connections live, or driving a real ssh client against it.
//
// Usage:
//
//	ssh-test-server serve              # run until interrupted
//	ssh-test-server scenario echo      # run seeded with a built-in preset
//	ssh-test-server watch              # run with a live connection dashboard
//	ssh-test-server demo               # run and immediately ssh into it
//	ssh-test-server doctor             # preflight checks only
package main

import (
	"fmt"
	"os"

	"github.com/sshtest/server/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
