// Package testutil holds fixtures shared by package tests: a throwaway
// settings database and small modlist archives.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jxwalker/modinstall/internal/config"
	"github.com/jxwalker/modinstall/internal/modlist"
	"github.com/jxwalker/modinstall/internal/state"
)

// TinyInlinePath and TinyInlineData describe the single inline file the
// TinyModList fixture installs.
const (
	TinyInlinePath = "profiles/Tiny/modlist.txt"
	TinyInlineData = "+Core"
)

// TestConfig returns the default config rooted in a fresh temp dir, with
// periodic checkpoints off.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.Default()
	c.General.DataRoot = filepath.Join(t.TempDir(), "data")
	c.Installer.CheckpointSeconds = 0
	return c
}

// OpenDB opens the settings database for c and closes it when the test
// ends. Opening the same data root twice gives two connections to one file.
func OpenDB(t *testing.T, c *config.Config) *state.DB {
	t.Helper()
	db, err := state.Open(c)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

// TestDB is OpenDB on a fresh TestConfig.
func TestDB(t *testing.T) *state.DB {
	t.Helper()
	return OpenDB(t, TestConfig(t))
}

// TinyModList returns a list with one inline file and one directive that
// needs a download, plus the inline payloads to store with it.
func TinyModList(archives ...modlist.Archive) (*modlist.ModList, map[string][]byte) {
	ml := &modlist.ModList{
		Name:     "Tiny",
		Author:   "tester",
		Version:  "1.0.0",
		Archives: archives,
		Directives: []modlist.Directive{
			{Type: modlist.DirectiveInlineFile, To: `profiles\Tiny\modlist.txt`, SourceDataID: "inline-1", Size: int64(len(TinyInlineData))},
			{Type: modlist.DirectiveFromArchive, To: "mods/core.esp", Size: 10},
		},
	}
	return ml, map[string][]byte{"inline-1": []byte(TinyInlineData)}
}

// WriteModlist stores ml as dir/<name>.modlist and returns the path.
func WriteModlist(t *testing.T, dir string, ml *modlist.ModList, inline map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, ml.Name+".modlist")
	if err := modlist.Create(path, ml, inline); err != nil {
		t.Fatalf("failed to write modlist: %v", err)
	}
	return path
}

// WriteTinyModlist writes the TinyModList fixture into dir.
func WriteTinyModlist(t *testing.T, dir string, archives ...modlist.Archive) string {
	t.Helper()
	ml, inline := TinyModList(archives...)
	return WriteModlist(t, dir, ml, inline)
}

// TempFile creates a file with content in a fresh temp dir.
func TempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
