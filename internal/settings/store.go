// Package settings keeps the per-modlist install settings for one process:
// a cache of records keyed by modlist path, the last modlist used, and the
// save signal that tells every binding to flush its edits.
package settings

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jxwalker/modinstall/internal/reactive"
	"github.com/jxwalker/modinstall/internal/state"
)

// Backend persists records. *state.DB satisfies it.
type Backend interface {
	ListInstallSettings() ([]state.InstallSettingsRow, error)
	UpsertInstallSettings(state.InstallSettingsRow) error
	DeleteInstallSettings(modlistPath string) error
	LastInstalledListLocation() (string, error)
	SetLastInstalledListLocation(string) error
}

// Record holds the folders remembered for one modlist.
type Record struct {
	mu                   sync.Mutex
	modlistPath          string
	installationLocation string
	downloadLocation     string
}

func (r *Record) ModlistPath() string { return r.modlistPath }

// Paths returns the install and download folders.
func (r *Record) Paths() (installation, download string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.installationLocation, r.downloadLocation
}

func (r *Record) SetPaths(installation, download string) {
	r.mu.Lock()
	r.installationLocation = installation
	r.downloadLocation = download
	r.mu.Unlock()
}

type Store struct {
	backend Backend
	save    *reactive.Event

	mu      sync.Mutex
	records map[string]*Record
	last    string
}

// New returns an empty store. backend may be nil for a memory-only store.
func New(backend Backend) *Store {
	return &Store{backend: backend, save: reactive.NewEvent(), records: map[string]*Record{}}
}

// Open returns a store primed with everything backend has persisted.
func Open(backend Backend) (*Store, error) {
	s := New(backend)
	if backend == nil {
		return s, nil
	}
	rows, err := backend.ListInstallSettings()
	if err != nil {
		return nil, fmt.Errorf("load install settings: %w", err)
	}
	for _, row := range rows {
		s.records[row.ModlistPath] = &Record{
			modlistPath:          row.ModlistPath,
			installationLocation: row.InstallationLocation,
			downloadLocation:     row.DownloadLocation,
		}
	}
	if s.last, err = backend.LastInstalledListLocation(); err != nil {
		return nil, fmt.Errorf("load last installed list: %w", err)
	}
	return s, nil
}

// TryCreate returns the record for modlistPath, creating an empty one on
// first use. A blank path has no record.
func (s *Store) TryCreate(modlistPath string) (*Record, bool) {
	if strings.TrimSpace(modlistPath) == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[modlistPath]; ok {
		return r, true
	}
	r := &Record{modlistPath: modlistPath}
	s.records[modlistPath] = r
	return r, true
}

// Lookup returns an existing record without creating one.
func (s *Store) Lookup(modlistPath string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[modlistPath]
	return r, ok
}

// Records returns every cached record sorted by modlist path.
func (s *Store) Records() []*Record {
	s.mu.Lock()
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].modlistPath < out[j].modlistPath })
	return out
}

// ModlistPaths lists the known modlist paths, sorted.
func (s *Store) ModlistPaths() []string {
	recs := s.Records()
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.modlistPath)
	}
	return out
}

// Forget drops a record from the cache and from the backend.
func (s *Store) Forget(modlistPath string) error {
	s.mu.Lock()
	delete(s.records, modlistPath)
	s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	return s.backend.DeleteInstallSettings(modlistPath)
}

func (s *Store) LastInstalledListLocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Store) SetLastInstalledListLocation(p string) {
	s.mu.Lock()
	s.last = p
	s.mu.Unlock()
}

// SaveSignal fires at the start of SaveAll so bindings can flush first.
func (s *Store) SaveSignal() *reactive.Event { return s.save }

// SaveAll fires the save signal and then persists every record and the
// last installed list location.
func (s *Store) SaveAll() error {
	s.save.Fire()
	return s.persist()
}

func (s *Store) persist() error {
	if s.backend == nil {
		return nil
	}
	for _, r := range s.Records() {
		installation, download := r.Paths()
		row := state.InstallSettingsRow{ModlistPath: r.modlistPath, InstallationLocation: installation, DownloadLocation: download}
		if err := s.backend.UpsertInstallSettings(row); err != nil {
			return fmt.Errorf("save settings for %s: %w", r.modlistPath, err)
		}
	}
	if err := s.backend.SetLastInstalledListLocation(s.LastInstalledListLocation()); err != nil {
		return fmt.Errorf("save last installed list: %w", err)
	}
	return nil
}
