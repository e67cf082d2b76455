package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupBuiltins(t *testing.T) {
	for _, name := range List() {
		if _, ok := Lookup(name); !ok {
			t.Fatalf("expected built-in preset %q to be present", name)
		}
	}
	if _, ok := Lookup("does-not-exist"); ok {
		t.Fatal("expected unknown preset name to be absent")
	}
}

func TestLoadCustomPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	doc := "name: custom\nusers:\n  - login: alice\n    password: wonderland\n    admin: true\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "custom" || len(p.Users) != 1 || p.Users[0].Login != "alice" || !p.Users[0].Admin {
		t.Fatalf("unexpected preset: %+v", p)
	}
}
