package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jxwalker/modinstall/internal/install"
)

const (
	fieldModlist = iota
	fieldInstall
	fieldDownload
	fieldCount
)

const maxSuggestions = 5

type TUIController struct {
	model      *TUIModel
	view       *TUIView
	ctx        context.Context
	inputs     [fieldCount]textinput.Model
	focus      int
	showHelp   bool
	suggestIdx int
	spin       spinner.Model
}

func NewTUIController(model *TUIModel, view *TUIView) *TUIController {
	modlistInput := textinput.New()
	modlistInput.Placeholder = "/path/to/list.modlist"
	modlistInput.Prompt = "Modlist   "

	installInput := textinput.New()
	installInput.Placeholder = "/path/to/install"
	installInput.Prompt = "Install   "

	downloadInput := textinput.New()
	downloadInput.Placeholder = "/path/to/downloads"
	downloadInput.Prompt = "Downloads "

	c := &TUIController{
		model:      model,
		view:       view,
		ctx:        context.Background(),
		inputs:     [fieldCount]textinput.Model{modlistInput, installInput, downloadInput},
		suggestIdx: -1,
		spin:       spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	for i := range c.inputs {
		c.inputs[i].CharLimit = 4096
	}
	c.inputs[fieldModlist].Focus()
	c.syncInputs()
	return c
}

func (c *TUIController) wrapModel() tea.Model {
	return &model{tuiModel: c.model, tuiView: c.view, tuiController: c}
}

func (c *TUIController) Init() tea.Cmd {
	if c.model.store == nil {
		return tea.Batch(textinput.Blink, c.spin.Tick, tickCmd(c.model.cfg.UI.RefreshHz))
	}
	if last := c.model.store.LastInstalledListLocation(); last != "" && c.model.session.Source.Path().Get() == "" {
		c.model.OpenModlist(last)
		c.inputs[fieldModlist].SetValue(last)
		c.syncInputs()
	}
	return tea.Batch(textinput.Blink, c.spin.Tick, tickCmd(c.model.cfg.UI.RefreshHz))
}

func (c *TUIController) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.view.SetSize(msg.Width, msg.Height)
		return c.wrapModel(), nil

	case tea.KeyMsg:
		return c.handleKeyMsg(msg)

	case tickMsg:
		c.model.Refresh(time.Time(msg))
		c.syncInputs()
		return c.wrapModel(), tickCmd(c.model.cfg.UI.RefreshHz)

	case spinner.TickMsg:
		var cmd tea.Cmd
		c.spin, cmd = c.spin.Update(msg)
		return c.wrapModel(), cmd

	case errMsg:
		c.model.status = msg.err.Error()
		return c.wrapModel(), nil
	}

	var cmd tea.Cmd
	c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
	return c.wrapModel(), cmd
}

func (c *TUIController) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if c.showHelp {
		switch msg.String() {
		case "ctrl+c":
			return c.wrapModel(), tea.Quit
		case "esc", "f1":
			c.showHelp = false
		}
		return c.wrapModel(), nil
	}

	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return c.wrapModel(), tea.Quit

	case "f1":
		c.showHelp = true

	case "tab", "down":
		c.setFocus((c.focus + 1) % fieldCount)

	case "shift+tab", "up":
		c.setFocus((c.focus + fieldCount - 1) % fieldCount)

	case "enter":
		if c.focus == fieldModlist {
			c.model.OpenModlist(c.inputs[fieldModlist].Value())
			c.suggestIdx = -1
		} else {
			c.setFocus((c.focus + 1) % fieldCount)
		}

	case "ctrl+n":
		if c.focus == fieldModlist {
			c.nextSuggestion()
		}

	case "ctrl+b":
		c.model.Begin(c.ctx)

	case "ctrl+x":
		c.model.Cancel()

	case "ctrl+s":
		c.model.Checkpoint(time.Now())
		c.model.status = "settings saved"

	default:
		var cmd tea.Cmd
		c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
		c.pushFocused()
		return c.wrapModel(), cmd
	}
	c.syncInputs()
	return c.wrapModel(), nil
}

// setFocus moves the cursor to field i. Leaving the modlist input with a
// new path opens it.
func (c *TUIController) setFocus(i int) {
	if c.focus == fieldModlist {
		typed := c.inputs[fieldModlist].Value()
		if typed != "" && typed != c.model.session.Source.Path().Get() {
			c.model.OpenModlist(typed)
		}
		c.suggestIdx = -1
	}
	c.inputs[c.focus].Blur()
	c.focus = i
	c.inputs[c.focus].Focus()
}

func (c *TUIController) nextSuggestion() {
	s := c.model.Suggestions(c.inputs[fieldModlist].Value(), maxSuggestions)
	if len(s) == 0 {
		return
	}
	c.suggestIdx = (c.suggestIdx + 1) % len(s)
	c.inputs[fieldModlist].SetValue(s[c.suggestIdx])
	c.inputs[fieldModlist].CursorEnd()
}

// pushFocused copies what was typed into the folder fields. The modlist
// path is only applied on enter or when focus leaves it.
func (c *TUIController) pushFocused() {
	switch c.focus {
	case fieldInstall:
		c.model.session.Location.Set(c.inputs[fieldInstall].Value())
	case fieldDownload:
		c.model.session.DownloadLocation.Set(c.inputs[fieldDownload].Value())
	case fieldModlist:
		c.suggestIdx = -1
	}
	c.syncInputs()
}

// syncInputs shows values set elsewhere, by the settings binding or the
// download path derivation, in the inputs.
func (c *TUIController) syncInputs() {
	s := c.model.session
	set := func(i int, v string) {
		if c.inputs[i].Value() != v {
			c.inputs[i].SetValue(v)
		}
	}
	set(fieldInstall, s.Location.Get())
	set(fieldDownload, s.DownloadLocation.Get())
	if c.focus != fieldModlist {
		set(fieldModlist, s.Source.Path().Get())
	}
}

func (c *TUIController) fieldError(i int) string {
	s := c.model.session
	var f *install.PathField
	switch i {
	case fieldModlist:
		f = s.Source.Field
	case fieldInstall:
		f = s.Location
	default:
		f = s.DownloadLocation
	}
	return f.Err.Get()
}
