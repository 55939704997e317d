package install

import (
	"testing"

	"github.com/jxwalker/modinstall/internal/reactive"
)

func TestDeriveDownloadPath(t *testing.T) {
	install, download := reactive.NewValue(""), reactive.NewValue("")
	sub := DeriveDownloadPath(install, download, "downloads")
	defer sub.Close()

	install.Set("/foo")
	if got := download.Get(); got != "/foo/downloads" {
		t.Fatalf("download = %q, want /foo/downloads", got)
	}

	download.Set("/bar")
	install.Set("/baz")
	if got := download.Get(); got != "/bar" {
		t.Fatalf("non-empty download path was overridden: %q", got)
	}
}

func TestDeriveSkipsInitialValue(t *testing.T) {
	install, download := reactive.NewValue("/loaded"), reactive.NewValue("")
	DeriveDownloadPath(install, download, "downloads")
	if got := download.Get(); got != "" {
		t.Fatalf("initial value should not derive, got %q", got)
	}
}

func TestDeriveTreatsWhitespaceAsEmpty(t *testing.T) {
	install, download := reactive.NewValue(""), reactive.NewValue("   ")
	DeriveDownloadPath(install, download, "dl")
	install.Set("/games/list")
	if got := download.Get(); got != "/games/list/dl" {
		t.Fatalf("download = %q", got)
	}
	download.Set("")
	install.Set("")
	if got := download.Get(); got != "" {
		t.Fatalf("blank install path should not derive, got %q", got)
	}
}
