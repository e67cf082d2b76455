// Package scenario holds named presets of users and programs a server can
// be started with, so the CLI's "scenario" subcommand can reproduce one of
// the documented end-to-end setups (or a custom one loaded from YAML)
// without the caller hand-assembling users on the command line.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UserSpec is one user entry in a Preset.
type UserSpec struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
	Admin    bool   `yaml:"admin"`
}

// Preset names a reproducible starting state: a set of users and a short
// description of what the scenario demonstrates. Presets do not carry
// program handlers — those are Go functions and cannot round-trip through
// YAML — so the "registered overrides" preset documents in Notes which
// program a caller must register alongside it.
type Preset struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Users       []UserSpec `yaml:"users"`
	Notes       string     `yaml:"notes,omitempty"`
}

// Built-in presets, named after the end-to-end scenarios this server's
// behavior is validated against.
var builtins = map[string]Preset{
	"echo": {
		Name:        "echo",
		Description: "single admin user exercising the echo built-in",
		Users:       []UserSpec{{Login: "root", Password: "root1234", Admin: true}},
	},
	"unknown-command": {
		Name:        "unknown-command",
		Description: "single admin user, for exercising the command-not-found path",
		Users:       []UserSpec{{Login: "root", Password: "root1234", Admin: true}},
	},
	"change-password": {
		Name:        "change-password",
		Description: "single non-admin user exercising change_password",
		Users:       []UserSpec{{Login: "root", Password: "root1234"}},
	},
	"registered-overrides": {
		Name:        "registered-overrides",
		Description: "admin and non-admin user, for a whoami-style registered program",
		Users: []UserSpec{
			{Login: "root", Password: "root1234", Admin: true},
			{Login: "user1", Password: "pass123"},
		},
		Notes: "register a \"whoami\" program returning stdout(ctx.CurrentUser) to reproduce the full scenario",
	},
}

// List returns the names of every built-in preset, sorted by the order
// they are documented in.
func List() []string {
	return []string{"echo", "unknown-command", "change-password", "registered-overrides"}
}

// Lookup returns the built-in preset named name.
func Lookup(name string) (Preset, bool) {
	p, ok := builtins[name]
	return p, ok
}

// Load reads a custom preset from a YAML file, for scenarios beyond the
// built-in set.
func Load(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("reading scenario %q: %w", path, err)
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("parsing scenario %q: %w", path, err)
	}
	return p, nil
}
