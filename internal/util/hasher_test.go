package util

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// sha256("hello")
const helloSHA = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestHashFileSHA256(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := HashFileSHA256(context.Background(), p)
	if err != nil || got != helloSHA {
		t.Fatalf("hash = %q, %v", got, err)
	}
	for _, want := range []string{helloSHA, "sha256:" + helloSHA, strings.ToUpper(helloSHA)} {
		if ok, err := MatchesSHA256(context.Background(), p, want); !ok || err != nil {
			t.Fatalf("MatchesSHA256(%q) = %v, %v", want, ok, err)
		}
	}
	if ok, _ := MatchesSHA256(context.Background(), p, strings.Repeat("0", 64)); ok {
		t.Fatalf("wrong digest matched")
	}
}

func TestHashFileSHA256Cancelled(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := HashFileSHA256(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
