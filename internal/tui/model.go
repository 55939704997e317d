// Package tui is the interactive installer screen: the three path inputs,
// the start and cancel keys, and a view of the running installation.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jxwalker/modinstall/internal/config"
	"github.com/jxwalker/modinstall/internal/install"
	"github.com/jxwalker/modinstall/internal/logging"
	"github.com/jxwalker/modinstall/internal/settings"
)

// Options carries what the screen drives. Session and Store are owned by
// the caller, which tears them down after the program exits.
type Options struct {
	Config  *config.Config
	Session *install.Session
	Store   *settings.Store
	Log     *logging.Logger
	Logs    *logging.Buffer
	Version string
}

type model struct {
	tuiModel      *TUIModel
	tuiView       *TUIView
	tuiController *TUIController
}

type tickMsg time.Time

type errMsg struct{ err error }

// New creates the tea.Model for the installer screen.
func New(opts Options) tea.Model {
	tuiModel := NewTUIModel(opts)
	tuiView := NewTUIView()
	tuiController := NewTUIController(tuiModel, tuiView)

	m := &model{
		tuiModel:      tuiModel,
		tuiView:       tuiView,
		tuiController: tuiController,
	}
	return m
}

func (m *model) Init() tea.Cmd {
	return m.tuiController.Init()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.tuiController.Update(msg)
}

func (m *model) View() string {
	return m.tuiView.View(m.tuiModel, m.tuiController)
}

func tickCmd(hz int) tea.Cmd {
	if hz <= 0 {
		hz = 4
	}
	if hz > 10 {
		hz = 10
	}
	d := time.Second / time.Duration(hz)
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}
