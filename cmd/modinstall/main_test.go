package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jxwalker/modinstall/internal/config"
	errs "github.com/jxwalker/modinstall/internal/errors"
	"github.com/jxwalker/modinstall/internal/modlist"
	"github.com/jxwalker/modinstall/internal/settings"
	"github.com/jxwalker/modinstall/internal/state"
	"github.com/jxwalker/modinstall/internal/testutil"
)

func writeTestConfig(t *testing.T, tmp string) (string, *config.Config) {
	t.Helper()
	cfgPath := filepath.Join(tmp, "cfg.yml")
	cfg := strings.Join([]string{
		"version: 1",
		"general:",
		"  data_root: \"" + filepath.Join(tmp, "data") + "\"",
		"installer:",
		"  checkpoint_seconds: 0",
	}, "\n")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfgPath, c
}

func TestInstallRemembersFolders(t *testing.T) {
	tmp := t.TempDir()
	cfgPath, c := writeTestConfig(t, tmp)
	listPath := testutil.WriteTinyModlist(t, tmp)
	out := filepath.Join(tmp, "game")

	args := []string{"install", "--config", cfgPath, "--quiet", "--modlist", listPath, "--install-dir", out}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("install: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(testutil.TinyInlinePath)))
	if err != nil || string(data) != testutil.TinyInlineData {
		t.Fatalf("inline file: %q %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(out, "downloads")); err != nil {
		t.Fatalf("derived download folder not created: %v", err)
	}

	// second run picks up the last modlist and its folders
	if err := run(context.Background(), []string{"install", "--config", cfgPath, "--quiet"}); err != nil {
		t.Fatalf("repeat install: %v", err)
	}

	st := testutil.OpenDB(t, c)
	row, ok, err := st.GetInstallSettings(listPath)
	if err != nil || !ok {
		t.Fatalf("settings not stored: %v %v", ok, err)
	}
	if row.InstallationLocation != out || row.DownloadLocation != filepath.Join(out, "downloads") {
		t.Fatalf("stored row = %+v", row)
	}
	if last, _ := st.LastInstalledListLocation(); last != listPath {
		t.Fatalf("last list = %q", last)
	}
	runs, err := st.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	for _, r := range runs {
		if r.Status != state.RunComplete {
			t.Fatalf("run %s status %s", r.ID, r.Status)
		}
	}
	if _, err := os.Stat(filepath.Join(c.General.DataRoot, "modinstall.lock")); !os.IsNotExist(err) {
		t.Fatalf("lock not released: %v", err)
	}
}

func TestInstallWithoutFoldersIsBlocked(t *testing.T) {
	tmp := t.TempDir()
	cfgPath, c := writeTestConfig(t, tmp)
	listPath := testutil.WriteTinyModlist(t, tmp)

	err := run(context.Background(), []string{"install", "--config", cfgPath, "--quiet", "--modlist", listPath})
	if err == nil || !strings.Contains(err.Error(), "install folder") {
		t.Fatalf("expected blocked error naming the install folder, got %v", err)
	}
	runs, _ := testutil.OpenDB(t, c).ListRuns(0)
	if len(runs) != 0 {
		t.Fatalf("blocked start recorded a run")
	}
}

func TestInstallFailureIsRecorded(t *testing.T) {
	tmp := t.TempDir()
	cfgPath, c := writeTestConfig(t, tmp)
	listPath := testutil.WriteTinyModlist(t, tmp, modlist.Archive{Name: "core.7z", Size: 42})

	args := []string{"install", "--config", cfgPath, "--quiet", "--modlist", listPath, "--install-dir", filepath.Join(tmp, "game")}
	if err := run(context.Background(), args); !errors.Is(err, errInstallFailed) {
		t.Fatalf("expected errInstallFailed, got %v", err)
	}
	runs, err := testutil.OpenDB(t, c).ListRuns(0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, %v", runs, err)
	}
	if runs[0].Status != state.RunFailed || !strings.Contains(runs[0].LastError, "core.7z") {
		t.Fatalf("run = %+v", runs[0])
	}
}

func TestInstallConstructionFailure(t *testing.T) {
	tmp := t.TempDir()
	cfgPath, c := writeTestConfig(t, tmp)
	listPath := testutil.WriteTinyModlist(t, tmp)
	same := filepath.Join(tmp, "game")

	args := []string{"install", "--config", cfgPath, "--quiet", "--modlist", listPath, "--install-dir", same, "--download-dir", same}
	if err := run(context.Background(), args); !errors.Is(err, errInstallFailed) {
		t.Fatalf("expected errInstallFailed, got %v", err)
	}
	runs, _ := testutil.OpenDB(t, c).ListRuns(0)
	if len(runs) != 0 {
		t.Fatalf("construction failure should not record a run")
	}
}

func TestSettingsListAndForget(t *testing.T) {
	tmp := t.TempDir()
	cfgPath, c := writeTestConfig(t, tmp)

	st := testutil.OpenDB(t, c)
	for _, p := range []string{"/lists/skyrim.modlist", "/lists/fallout.modlist"} {
		if err := st.UpsertInstallSettings(state.InstallSettingsRow{ModlistPath: p, InstallationLocation: "/games/x"}); err != nil {
			t.Fatal(err)
		}
	}
	store, err := settings.Open(st)
	if err != nil {
		t.Fatal(err)
	}
	got := listSettings(store, "sky")
	if len(got) != 1 || got[0].ModlistPath != "/lists/skyrim.modlist" {
		t.Fatalf("filtered list = %+v", got)
	}
	if all := listSettings(store, ""); len(all) != 2 || all[0].ModlistPath != "/lists/fallout.modlist" {
		t.Fatalf("list = %+v", all)
	}

	if err := run(context.Background(), []string{"settings", "forget", "--config", cfgPath, "/lists/skyrim.modlist"}); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if _, ok, _ := st.GetInstallSettings("/lists/skyrim.modlist"); ok {
		t.Fatalf("record still stored")
	}
	if err := run(context.Background(), []string{"settings", "forget", "--config", cfgPath, "/lists/none.modlist"}); err == nil {
		t.Fatalf("forgetting an unknown modlist should fail")
	}
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Setenv("MODINSTALL_CONFIG", "")
	t.Setenv("HOME", t.TempDir())
	c, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if c.Installer.DownloadsDirName != config.DefaultDownloadsDirName {
		t.Fatalf("not the default config: %+v", c.Installer)
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("an explicit missing config should be an error")
	}
}

func TestLoadConfigReportsBrokenFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cfg.yml")
	if err := os.WriteFile(cfgPath, []byte("general: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(cfgPath)
	var fe *errs.UserFriendlyError
	if !errors.As(err, &fe) {
		t.Fatalf("want a friendly error, got %T: %v", err, err)
	}
	if !strings.Contains(fe.Message, cfgPath) || fe.Details == nil {
		t.Fatalf("error should name the file and keep the cause: %+v", fe)
	}
	if !strings.Contains(fe.Suggestion, "config validate") {
		t.Fatalf("suggestion = %q", fe.Suggestion)
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"frobnicate"}); err == nil {
		t.Fatalf("expected error")
	}
	if err := run(context.Background(), []string{"config", "validate", "--config", filepath.Join(t.TempDir(), "nope.yml")}); err == nil {
		t.Fatalf("expected missing config error")
	}
}
