package modlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "list.modlist")
	ml := &ModList{
		Name:     "Example",
		Archives: []Archive{{Name: "core.7z", Size: 3}},
		Directives: []Directive{
			{Type: DirectiveInlineFile, To: `profiles\Default\modlist.txt`, SourceDataID: "abc", Size: 5},
			{Type: DirectiveFromArchive, To: "mods/core/core.esp", Size: 7},
		},
	}
	if err := Create(p, ml, map[string][]byte{"abc": []byte("hello")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "Example" || len(got.Directives) != 2 || got.TotalSize() != 12 {
		t.Fatalf("unexpected modlist: %+v", got)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	notZip := filepath.Join(dir, "bad.modlist")
	if err := os.WriteFile(notZip, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(notZip); err == nil {
		t.Fatalf("expected error for non-zip file")
	}

	if _, err := Load(filepath.Join(dir, "missing.modlist")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	noName := filepath.Join(dir, "noname.modlist")
	if err := Create(noName, &ModList{}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(noName); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestSafeRelative(t *testing.T) {
	cases := map[string]bool{
		"mods/a.esp":       true,
		`mods\a.esp`:       true,
		"a/../b":           true,
		"../escape":        false,
		`..\escape`:        false,
		"/abs":             false,
		`C:\Windows\x.dll`: false,
		"":                 false,
	}
	for in, want := range cases {
		if got := SafeRelative(in); got != want {
			t.Errorf("SafeRelative(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidateRejectsEscapingDirective(t *testing.T) {
	ml := &ModList{Name: "x", Directives: []Directive{{Type: DirectiveFromArchive, To: "../../etc/passwd"}}}
	if err := ml.Validate(); err == nil {
		t.Fatalf("expected error")
	}
}
