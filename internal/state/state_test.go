package state

import (
	"testing"

	"github.com/jxwalker/modinstall/internal/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.Config{Version: 1, General: config.General{DataRoot: t.TempDir()}}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInstallSettingsUpsertGet(t *testing.T) {
	db := openTestDB(t)
	row := InstallSettingsRow{ModlistPath: "/lists/a.modlist", InstallationLocation: "/games/a", DownloadLocation: "/games/a/downloads"}
	if err := db.UpsertInstallSettings(row); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	row.DownloadLocation = "/dl"
	if err := db.UpsertInstallSettings(row); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	got, ok, err := db.GetInstallSettings("/lists/a.modlist")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.InstallationLocation != "/games/a" || got.DownloadLocation != "/dl" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if _, ok, _ := db.GetInstallSettings("/missing"); ok {
		t.Fatalf("expected no row for unknown path")
	}
	list, err := db.ListInstallSettings()
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if err := db.DeleteInstallSettings("/lists/a.modlist"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if list, _ := db.ListInstallSettings(); len(list) != 0 {
		t.Fatalf("expected empty list after delete")
	}
}

func TestLastInstalledListLocation(t *testing.T) {
	db := openTestDB(t)
	if got, err := db.LastInstalledListLocation(); err != nil || got != "" {
		t.Fatalf("initial = %q, %v", got, err)
	}
	if err := db.SetLastInstalledListLocation("/lists/b.modlist"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := db.LastInstalledListLocation(); got != "/lists/b.modlist" {
		t.Fatalf("got %q", got)
	}
}

func TestRunsLifecycle(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertRun(RunRow{ID: "r1", ModlistPath: "/a", OutputPath: "/o", DownloadPath: "/d", StartedAt: 100}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.InsertRun(RunRow{ID: "r2", ModlistPath: "/a", OutputPath: "/o", DownloadPath: "/d", StartedAt: 200}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.FinishRun("r1", RunFailed, "zip: not a valid zip file"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	n, err := db.MarkInterruptedRuns()
	if err != nil || n != 1 {
		t.Fatalf("mark interrupted: n=%d err=%v", n, err)
	}
	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r2" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[1].Status != RunFailed || runs[1].LastError != "zip: not a valid zip file" || runs[1].FinishedAt == 0 {
		t.Fatalf("unexpected r1: %+v", runs[1])
	}
	if runs[0].LastError != "interrupted" {
		t.Fatalf("unexpected r2: %+v", runs[0])
	}
	if limited, _ := db.ListRuns(1); len(limited) != 1 {
		t.Fatalf("limit ignored: %d rows", len(limited))
	}
}

func TestCheckIntegrity(t *testing.T) {
	db := openTestDB(t)
	if err := db.CheckIntegrity(); err != nil {
		t.Fatalf("integrity: %v", err)
	}
}
