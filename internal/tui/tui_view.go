package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const logLines = 8

type TUIView struct {
	styles uiStyles
	prog   progress.Model
	width  int
	height int
}

type uiStyles struct {
	header lipgloss.Style
	label  lipgloss.Style
	err    lipgloss.Style
	ok     lipgloss.Style
	sel    lipgloss.Style
	box    lipgloss.Style
	footer lipgloss.Style
}

func NewTUIView() *TUIView {
	p := progress.New(progress.WithDefaultGradient())
	styles := uiStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		label:  lipgloss.NewStyle().Faint(true),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		sel:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		box:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1),
		footer: lipgloss.NewStyle().Faint(true),
	}
	return &TUIView{
		styles: styles,
		prog:   p,
	}
}

func (v *TUIView) SetSize(width, height int) {
	v.width = width
	v.height = height
	if width > 20 {
		v.prog.Width = width - 20
	}
}

func (v *TUIView) View(model *TUIModel, controller *TUIController) string {
	var b strings.Builder

	b.WriteString(v.renderHeader(model))
	b.WriteString("\n\n")

	if controller.showHelp {
		b.WriteString(v.helpView())
		return b.String()
	}

	b.WriteString(v.renderForm(model, controller))
	b.WriteString("\n")
	b.WriteString(v.renderJob(model, controller))
	b.WriteString("\n")
	if model.status != "" {
		b.WriteString(v.styles.label.Render(model.status))
		b.WriteString("\n")
	}
	b.WriteString(v.renderLogs(model))
	b.WriteString("\n")
	b.WriteString(v.styles.footer.Render("tab next • enter open • ctrl+b install • ctrl+x cancel • ctrl+s save • f1 help • ctrl+c quit"))
	return b.String()
}

func (v *TUIView) renderHeader(model *TUIModel) string {
	title := "modinstall"
	if model.version != "" {
		title += " " + model.version
	}
	return v.styles.header.Render(title)
}

func (v *TUIView) renderForm(model *TUIModel, controller *TUIController) string {
	var b strings.Builder
	for i := range controller.inputs {
		b.WriteString(controller.inputs[i].View())
		b.WriteString("\n")
		if msg := controller.fieldError(i); msg != "" {
			b.WriteString("          " + v.styles.err.Render(msg) + "\n")
		}
		if i == fieldModlist && controller.focus == fieldModlist {
			b.WriteString(v.renderSuggestions(model, controller))
		}
	}
	if ml := model.session.Source.Data(); ml != nil && !model.session.Source.InError().Get() {
		b.WriteString(v.styles.label.Render(fmt.Sprintf("%s %s by %s • %d directives • %s",
			ml.Name, ml.Version, ml.Author, len(ml.Directives), humanize.Bytes(uint64(ml.TotalSize())))))
		b.WriteString("\n")
	}
	if model.session.Gate.CanStart() {
		b.WriteString(v.styles.ok.Render("ready to install"))
	} else {
		b.WriteString(v.styles.err.Render("cannot install until every field is valid"))
	}
	b.WriteString("\n")
	return b.String()
}

func (v *TUIView) renderSuggestions(model *TUIModel, controller *TUIController) string {
	s := model.Suggestions(controller.inputs[fieldModlist].Value(), maxSuggestions)
	if len(s) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(v.styles.label.Render("          recent (ctrl+n):") + "\n")
	for i, p := range s {
		style := v.styles.label
		if i == controller.suggestIdx {
			style = v.styles.sel
		}
		b.WriteString("          " + style.Render(truncate(p, 70)) + "\n")
	}
	return b.String()
}

func (v *TUIView) renderJob(model *TUIModel, controller *TUIController) string {
	run := model.lastRun
	if !run.running {
		return v.styles.label.Render("no installation running") + "\n"
	}
	var b strings.Builder
	b.WriteString(controller.spin.View() + " ")
	if run.hasProg {
		p := run.progress
		b.WriteString(fmt.Sprintf("%s (%d/%d)\n", p.Step, p.StepsDone, p.StepsTotal))
		b.WriteString(v.prog.ViewAs(p.Fraction()))
		b.WriteString(fmt.Sprintf("  %s/%s", humanize.Bytes(uint64(p.BytesWritten)), humanize.Bytes(uint64(p.BytesTotal))))
		if p.Skipped > 0 {
			b.WriteString(fmt.Sprintf(" • %d skipped", p.Skipped))
		}
	} else {
		b.WriteString("installing")
	}
	if !run.started.IsZero() {
		b.WriteString(" • started " + humanize.RelTime(run.started, time.Now(), "ago", "from now"))
	}
	return v.styles.box.Render(b.String()) + "\n"
}

func (v *TUIView) renderLogs(model *TUIModel) string {
	lines := model.logs.Tail(logLines)
	if len(lines) == 0 {
		return ""
	}
	width := v.width - 4
	if width < 20 {
		width = 100
	}
	for i, l := range lines {
		lines[i] = truncate(strings.ReplaceAll(l, "\t", " "), width)
	}
	return v.styles.box.Render(strings.Join(lines, "\n")) + "\n"
}

func (v *TUIView) helpView() string {
	help := `
modinstall help

Fields:
  tab/↓      Next field
  shift+tab  Previous field
  enter      Open the typed modlist
  ctrl+n     Cycle through remembered modlists

Install:
  ctrl+b     Begin installation
  ctrl+x     Cancel the running installation
  ctrl+s     Save install settings now

  f1/esc     Close help
  ctrl+c     Quit
`
	return help
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
