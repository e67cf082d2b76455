package dispatch

import (
	"testing"

	"github.com/sshtest/server/internal/directory"
	"github.com/sshtest/server/internal/registry"
)

func newDir() *directory.Directory {
	d := directory.NewDirectory()
	d.Insert(directory.New("user1", "pass123"))
	return d
}

func TestDispatchEmptyLineIsNoOp(t *testing.T) {
	reg := registry.NewBuilder().Build()
	out := Dispatch(reg, newDir(), "user1", "   ")
	if out != (Outcome{}) {
		t.Fatalf("expected zero outcome, got %+v", out)
	}
}

func TestDispatchEcho(t *testing.T) {
	reg := registry.NewBuilder().Build()
	out := Dispatch(reg, newDir(), "user1", "echo hello world")
	if out.Stdout != "helloworld" || out.StatusCode != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDispatchChangePassword(t *testing.T) {
	dir := newDir()
	reg := registry.NewBuilder().Build()

	missing := Dispatch(reg, dir, "user1", "change_password")
	if missing.StatusCode != 1 || missing.Stdout == "" {
		t.Fatalf("expected usage string on stdout, got %+v", missing)
	}

	ok := Dispatch(reg, dir, "user1", "change_password newpass")
	if ok.StatusCode != 0 || ok.Stdout != "password changed" {
		t.Fatalf("unexpected outcome: %+v", ok)
	}
	if !dir.CheckPassword("user1", "newpass") {
		t.Fatal("expected password to be updated in directory")
	}
}

func TestDispatchExit(t *testing.T) {
	reg := registry.NewBuilder().Build()
	out := Dispatch(reg, newDir(), "user1", "exit")
	if !out.Exit || out.StatusCode != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDispatchCommandNotFound(t *testing.T) {
	reg := registry.NewBuilder().Build()
	out := Dispatch(reg, newDir(), "user1", "nope")
	if out.StatusCode != 127 || out.Stderr != "nope: command not found" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDispatchRegistryTakesPrecedenceOverBuiltins(t *testing.T) {
	reg := registry.NewBuilder().
		Add("exit", func(ctx *registry.Context, program string, args []string) registry.Result {
			return registry.Stdout(0, "shadowed")
		}).
		Build()
	out := Dispatch(reg, newDir(), "user1", "exit")
	if out.Exit || out.Stdout != "shadowed" {
		t.Fatalf("expected registered handler to shadow built-in exit, got %+v", out)
	}
}

func TestDispatchHandlerPanicIsRecovered(t *testing.T) {
	reg := registry.NewBuilder().
		Add("boom", func(ctx *registry.Context, program string, args []string) registry.Result {
			panic("kaboom")
		}).
		Build()
	out := Dispatch(reg, newDir(), "user1", "boom")
	if out.StatusCode != 1 || out.Stderr == "" {
		t.Fatalf("expected panic to be converted into a client-safe error, got %+v", out)
	}
}
