package main

import (
	"context"
	"errors"
	"flag"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jxwalker/modinstall/internal/install"
	"github.com/jxwalker/modinstall/internal/logging"
	ui "github.com/jxwalker/modinstall/internal/tui"
)

func handleTUI(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := loadConfig(*cf.cfgPath)
	if err != nil {
		return err
	}
	// log lines go to the on-screen pane instead of the terminal
	logs := logging.NewBuffer(500)
	log, closeLog, err := newLogger(c, *cf.logLevel, false, logs)
	if err != nil {
		return err
	}
	defer closeLog()
	env, err := openEnv(c, log, true)
	if err != nil {
		return err
	}
	defer env.Close()

	session := install.NewSession(install.NewModlistSource(), env.store, install.NewInstaller, install.SessionOptions{
		DownloadsDirName: c.DownloadsDirName(),
		Orchestrator:     env.orchestratorOptions(nil),
	})
	m := ui.New(ui.Options{
		Config:  c,
		Session: session,
		Store:   env.store,
		Log:     log,
		Logs:    logs,
		Version: version,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	session.Orchestrator.Close()
	session.Unload()
	if err := env.store.SaveAll(); err != nil {
		return err
	}
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return runErr
}
