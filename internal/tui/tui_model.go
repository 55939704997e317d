package tui

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jxwalker/modinstall/internal/config"
	"github.com/jxwalker/modinstall/internal/install"
	"github.com/jxwalker/modinstall/internal/installer"
	"github.com/jxwalker/modinstall/internal/logging"
	"github.com/jxwalker/modinstall/internal/settings"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// TUIModel holds the session the screen drives and what the view needs
// from it between ticks.
type TUIModel struct {
	cfg     *config.Config
	session *install.Session
	store   *settings.Store
	log     *logging.Logger
	logs    *logging.Buffer
	version string

	status   string
	lastSave time.Time
	lastRun  jobSnapshot
}

// jobSnapshot is what the view shows about the active job.
type jobSnapshot struct {
	running  bool
	progress installer.Progress
	hasProg  bool
	started  time.Time
}

// NewTUIModel creates a TUIModel for opts.
func NewTUIModel(opts Options) *TUIModel {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	logs := opts.Logs
	if logs == nil {
		logs = logging.NewBuffer(200)
	}
	return &TUIModel{
		cfg:      cfg,
		session:  opts.Session,
		store:    opts.Store,
		log:      log,
		logs:     logs,
		version:  opts.Version,
		lastSave: time.Now(),
	}
}

// OpenModlist selects and parses the modlist at path.
func (m *TUIModel) OpenModlist(path string) {
	if err := m.session.Source.Open(path); err != nil {
		m.status = "modlist: " + err.Error()
		m.log.Warnf("open modlist %s: %v", logging.SanitizeSource(path), err)
		return
	}
	m.status = "loaded " + m.session.Source.Data().Name
}

// Begin starts an installation of the current inputs.
func (m *TUIModel) Begin(ctx context.Context) {
	err := m.session.Begin(ctx)
	switch {
	case errors.Is(err, install.ErrBlocked):
		m.status = "fix the highlighted fields before installing"
	case errors.Is(err, install.ErrBusy):
		m.status = "an installation is already running"
	case err != nil:
		m.status = err.Error()
	default:
		if m.session.Orchestrator.Active().Get() != nil {
			m.status = "installing"
			m.lastRun = jobSnapshot{running: true, started: time.Now()}
		} else {
			m.status = "could not start, see log"
		}
	}
}

// Cancel asks the running installation to stop.
func (m *TUIModel) Cancel() {
	if m.session.Orchestrator.Active().Get() == nil {
		m.status = "nothing to cancel"
		return
	}
	m.session.Orchestrator.Cancel()
	m.status = "cancelling"
}

// Refresh takes a new snapshot of the active job and runs a settings
// checkpoint when one is due.
func (m *TUIModel) Refresh(now time.Time) {
	job := m.session.Orchestrator.Active().Get()
	switch {
	case job != nil:
		m.lastRun.running = true
		if r, ok := job.(installer.Reporter); ok {
			m.lastRun.progress, m.lastRun.hasProg = r.Progress(), true
		}
	case m.lastRun.running:
		m.lastRun.running = false
		m.status = "idle"
	}
	every := time.Duration(m.cfg.Installer.CheckpointSeconds) * time.Second
	if every > 0 && now.Sub(m.lastSave) >= every {
		m.Checkpoint(now)
	}
}

// Checkpoint fires the store's save signal and persists every record.
func (m *TUIModel) Checkpoint(now time.Time) {
	m.lastSave = now
	if m.store == nil {
		return
	}
	if err := m.store.SaveAll(); err != nil {
		m.log.Warnf("save install settings: %v", err)
	}
}

// Suggestions ranks remembered modlist paths against query, best first.
func (m *TUIModel) Suggestions(query string, max int) []string {
	if m.store == nil {
		return nil
	}
	paths := m.store.ModlistPaths()
	if query == "" {
		if len(paths) > max {
			paths = paths[:max]
		}
		return paths
	}
	ranks := fuzzy.RankFindNormalizedFold(query, paths)
	sort.Sort(ranks)
	out := make([]string, 0, max)
	for _, r := range ranks {
		if len(out) == max {
			break
		}
		out = append(out, r.Target)
	}
	return out
}
