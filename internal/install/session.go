package install

import (
	"context"
	"sync"

	"github.com/jxwalker/modinstall/internal/config"
	"github.com/jxwalker/modinstall/internal/reactive"
	"github.com/jxwalker/modinstall/internal/settings"
)

// SessionOptions configures NewSession.
type SessionOptions struct {
	// DownloadsDirName is joined to the install path to suggest a download
	// path. Defaults to config.DefaultDownloadsDirName.
	DownloadsDirName string
	Orchestrator     []Option
}

// Session is one installer screen: the modlist source, the two folder
// fields, the gate over all three, the settings binding and the
// orchestrator. Every subscription it creates is released by Unload.
type Session struct {
	Source           *ModlistSource
	Location         *PathField
	DownloadLocation *PathField
	Gate             *Gate
	Binding          *SettingsBinding
	Orchestrator     *Orchestrator

	mu    sync.Mutex
	scope reactive.Scope
}

func NewSession(src *ModlistSource, store *settings.Store, newJob Factory, opts SessionOptions) *Session {
	subdir := opts.DownloadsDirName
	if subdir == "" {
		subdir = config.DefaultDownloadsDirName
	}
	s := &Session{
		Source:           src,
		Location:         NewPathField("", ValidateDirectory),
		DownloadLocation: NewPathField("", ValidateDirectory),
	}
	s.scope.OnClose(s.Location.Close)
	s.scope.OnClose(s.DownloadLocation.Close)

	// The binding loads the stored paths first so that DeriveDownloadPath
	// sees them as its initial value rather than as an edit.
	s.Binding = NewSettingsBinding(store, src.Path(), s.Location.Path, s.DownloadLocation.Path)
	s.scope.OnClose(s.Binding.Close)
	s.scope.Add(DeriveDownloadPath(s.Location.Path, s.DownloadLocation.Path, subdir))

	s.Gate = NewGate(s.Location.InError, s.DownloadLocation.InError, src.InError())
	s.scope.OnClose(s.Gate.Close)

	s.Orchestrator = NewOrchestrator(s.Gate, newJob, opts.Orchestrator...)
	return s
}

// Target snapshots the current inputs.
func (s *Session) Target() Target {
	return Target{
		ArchivePath:  s.Source.Path().Get(),
		ModList:      s.Source.Data(),
		OutputPath:   s.Location.Get(),
		DownloadPath: s.DownloadLocation.Get(),
	}
}

// Begin starts an installation of the current inputs.
func (s *Session) Begin(ctx context.Context) error {
	return s.Orchestrator.Start(ctx, s.Target())
}

// Unload flushes the current modlist's settings and releases the session's
// subscriptions. A running job is left alone; callers that are exiting
// cancel it through Orchestrator.Close.
func (s *Session) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Binding.Unload()
	s.scope.Close()
}
