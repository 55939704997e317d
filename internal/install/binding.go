package install

import (
	"strings"
	"sync"

	"github.com/jxwalker/modinstall/internal/reactive"
	"github.com/jxwalker/modinstall/internal/settings"
)

// SettingsBinding keeps the install and download paths in step with the
// settings record of the selected modlist.
//
// When the modlist changes, the paths on screen are written to the
// previous modlist's record before the new record's paths are loaded, so
// edits made just before switching are kept. A save signal or Unload
// writes the paths to the current record.
type SettingsBinding struct {
	store    *settings.Store
	identity *reactive.Value[string]
	install  *reactive.Value[string]
	download *reactive.Value[string]

	mu      sync.Mutex
	current *settings.Record
	scope   reactive.Scope
}

func NewSettingsBinding(store *settings.Store, identity, install, download *reactive.Value[string]) *SettingsBinding {
	b := &SettingsBinding{store: store, identity: identity, install: install, download: download}
	b.load(identity.Get())
	b.scope.Add(reactive.Pairwise(identity, b.onIdentity))
	b.scope.Add(store.SaveSignal().Subscribe(b.onSave))
	return b
}

// Current returns the record of the selected modlist, nil when none is
// selected.
func (b *SettingsBinding) Current() *settings.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Unload writes the paths to the current record once more. The owner calls
// it when tearing down.
func (b *SettingsBinding) Unload() { b.flush(b.Current()) }

// Close stops reacting to identity changes and save signals.
func (b *SettingsBinding) Close() { b.scope.Close() }

func (b *SettingsBinding) onIdentity(_, modlistPath string) {
	b.mu.Lock()
	prev := b.current
	b.mu.Unlock()
	b.flush(prev)
	b.load(modlistPath)
}

// load makes the record of modlistPath current and shows its paths. A blank
// path has no record and leaves the paths alone.
func (b *SettingsBinding) load(modlistPath string) {
	rec, _ := b.store.TryCreate(modlistPath)
	b.mu.Lock()
	b.current = rec
	b.mu.Unlock()
	if rec == nil {
		return
	}
	installation, download := rec.Paths()
	b.install.Set(installation)
	b.download.Set(download)
}

func (b *SettingsBinding) onSave() { b.flush(b.Current()) }

// flush records the selected modlist as the last one used and, when rec is
// set, stores the paths on screen in it. A blank selection keeps the last
// location already stored.
func (b *SettingsBinding) flush(rec *settings.Record) {
	if id := b.identity.Get(); strings.TrimSpace(id) != "" {
		b.store.SetLastInstalledListLocation(id)
	}
	if rec == nil {
		return
	}
	rec.SetPaths(b.install.Get(), b.download.Get())
}
