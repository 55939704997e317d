package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestRootCause(t *testing.T) {
	root := errors.New("zip: not a valid zip file")
	wrapped := Construction(fmt.Errorf("open modlist: %w", root))

	if got := RootCause(wrapped); got != root {
		t.Fatalf("RootCause = %v, want %v", got, root)
	}
	if got := len(Chain(wrapped)); got != 3 {
		t.Fatalf("chain length = %d, want 3", got)
	}
	if p, ok := PhaseOf(wrapped); !ok || p != PhaseConstruction {
		t.Fatalf("PhaseOf = %v,%v", p, ok)
	}
}

func TestRootCauseJoined(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	err := fmt.Errorf("outer: %w", errors.Join(first, second))
	if got := RootCause(err); got != first {
		t.Fatalf("RootCause = %v, want first", got)
	}
}

func TestNilHandling(t *testing.T) {
	if Construction(nil) != nil || Execution(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if RootCause(nil) != nil {
		t.Fatalf("RootCause(nil) should be nil")
	}
	if _, ok := PhaseOf(errors.New("plain")); ok {
		t.Fatalf("plain error has no phase")
	}
}

func TestPathErrorMessages(t *testing.T) {
	e := PathError("/data/mods", errors.New("mkdir /data/mods: permission denied"))
	if e.Message != "Permission denied: /data/mods" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
	if !errors.Is(e, e.Details) {
		t.Fatalf("details should be unwrappable")
	}
}
