package install

import (
	"path/filepath"
	"strings"

	"github.com/jxwalker/modinstall/internal/reactive"
)

// DeriveDownloadPath fills an empty download path with install/subdir
// whenever the install path changes. The value current at subscription
// time is not treated as a change.
func DeriveDownloadPath(install, download *reactive.Value[string], subdir string) *reactive.Subscription {
	return reactive.SkipFirst(install, func(installPath string) {
		if strings.TrimSpace(installPath) == "" {
			return
		}
		if strings.TrimSpace(download.Get()) != "" {
			return
		}
		download.Set(filepath.Join(installPath, subdir))
	})
}
