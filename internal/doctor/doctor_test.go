package doctor

import "testing"

func TestRunAllOKOnEphemeralPort(t *testing.T) {
	checks := Run("127.0.0.1", 0)
	if len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(checks))
	}
	if !AllOK(checks) {
		t.Fatalf("expected all checks to pass, got %+v", checks)
	}
}

func TestRunRejectsOutOfRangePort(t *testing.T) {
	checks := Run("127.0.0.1", 70000)
	if AllOK(checks) {
		t.Fatal("expected an out-of-range port to fail the port check")
	}
}
